package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	got := tokenize(`"Hello," she said -- (Golang!) v1.22 café`)

	assert.Equal(t, []string{"hello", "she", "said", "golang", "v1.22", "café"}, got)
}

func TestIsKeyword(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"revenue", true},
		{"café", true},
		{"abc", false},
		{"über", true},
		{"would", false},
		{"2024", false},
		{"q3q3", true},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, isKeyword(tt.word))
		})
	}
}

func TestTopWords_TiesKeepFirstOccurrence(t *testing.T) {
	words := tokenize("zebra apple zebra mango apple kiwi")

	got := topWords(words, 3)

	assert.Equal(t, []wordCount{
		{word: "zebra", count: 2, first: 0},
		{word: "apple", count: 2, first: 1},
		{word: "mango", count: 1, first: 2},
	}, got)
}

func TestTopWords_NoLimit(t *testing.T) {
	assert.Len(t, topWords(tokenize("alpha bravo charlie"), 0), 3)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"finance", "code"}, categories(tokenize("invoice for the docker server")))
	assert.Equal(t, []string{"health"}, categories(tokenize("doctor appointment")))
	assert.Empty(t, categories(tokenize("walk the dog")))
}
