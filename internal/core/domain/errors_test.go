package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedPlatform", ErrUnsupportedPlatform},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
		{"ErrLocked", ErrLocked},
		{"ErrWrongPassphrase", ErrWrongPassphrase},
		{"ErrNotSetUp", ErrNotSetUp},
		{"ErrAlreadySetUp", ErrAlreadySetUp},
		{"ErrInvalidCiphertext", ErrInvalidCiphertext},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrStoreLocked", ErrStoreLocked},
		{"ErrReducerUnavailable", ErrReducerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrLocked_MentionsNotAvailable(t *testing.T) {
	assert.Contains(t, ErrLocked.Error(), "not available")
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("open vectors: %w", ErrDimensionMismatch)
	assert.True(t, errors.Is(wrapped, ErrDimensionMismatch))
	assert.False(t, errors.Is(wrapped, ErrStoreLocked))
}
