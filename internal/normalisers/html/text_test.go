package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Budget &amp; Forecast</title><style>p { color: red; }</style></head>
<body>
<h1>Q3 Review</h1>
<p>Revenue grew <b>12%</b>.</p>
<script>alert("x")</script>
</body>
</html>`

	text, err := Extract([]byte(page))

	require.NoError(t, err)
	assert.Equal(t, "Budget & Forecast\n\nQ3 Review\nRevenue grew 12%.", text)
}

func TestExtract_TitleAlreadyLeadsBody(t *testing.T) {
	page := `<html><head><title>Notes</title></head><body><h1>Notes</h1><p>one</p></body></html>`

	text, err := Extract([]byte(page))

	require.NoError(t, err)
	assert.Equal(t, "Notes\none", text)
}

func TestExtract_TitleOnly(t *testing.T) {
	text, err := Extract([]byte(`<html><head><title>Empty</title></head><body></body></html>`))

	require.NoError(t, err)
	assert.Equal(t, "Empty", text)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "<title>Hello</title>", "Hello"},
		{"attributes and whitespace", `<TITLE lang="en">  Hi there </TITLE>`, "Hi there"},
		{"entities", "<title>A &lt;B&gt;</title>", "A <B>"},
		{"missing", "<p>no title</p>", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Title(tc.input))
		})
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple paragraph",
			input:    "<p>Hello World</p>",
			expected: "Hello World",
		},
		{
			name:     "nested tags",
			input:    "<div><p>Hello <b>World</b></p></div>",
			expected: "Hello World",
		},
		{
			name:     "br tags",
			input:    "Line 1<br>Line 2<br/>Line 3",
			expected: "Line 1\nLine 2\nLine 3",
		},
		{
			name:     "comments removed",
			input:    "<p>Visible</p><!-- hidden -->",
			expected: "Visible",
		},
		{
			name:     "entities decoded",
			input:    "<p>&quot;quoted&quot; &amp; more</p>",
			expected: `"quoted" & more`,
		},
		{
			name:     "spaces collapsed",
			input:    "<p>too    many \t spaces</p>",
			expected: "too many spaces",
		},
		{
			name:     "list items",
			input:    "<ul><li>one</li><li>two</li></ul>",
			expected: "one\ntwo",
		},
		{
			name:     "svg removed",
			input:    `<p>icon</p><svg><text>x</text></svg>`,
			expected: "icon",
		},
		{
			name:     "plain text",
			input:    "no markup",
			expected: "no markup",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Strip(tc.input))
		})
	}
}
