package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	err := NewError(ErrValidation, "topK must be >= 1")
	assert.Equal(t, "[VALIDATION] topK must be >= 1", err.Error())

	wrapped := NewEmbeddingError("backend unavailable", errors.New("dial tcp: refused"))
	assert.Contains(t, wrapped.Error(), "[EMBEDDING_FAILED]")
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewEmbeddingError("generate failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_RetryableTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"validation is not retryable", NewValidationError("bad threshold"), ErrValidation, false},
		{"embedding is retryable", NewEmbeddingError("timeout", nil), ErrEmbeddingFailed, true},
		{"source not found is not retryable", NewSourceNotFoundError("kb1"), ErrSourceNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.True(t, IsErrorCode(tt.err, tt.code))
		})
	}
}

func TestError_AsErrorThroughWrapping(t *testing.T) {
	inner := NewSourceNotFoundError("kb2")
	wrapped := fmt.Errorf("retrieve: %w", inner)

	e := AsError(wrapped)
	require.NotNil(t, e)
	assert.Equal(t, ErrSourceNotFound, e.Code)
	assert.True(t, IsErrorCode(wrapped, ErrSourceNotFound))
}

func TestError_NonStructured(t *testing.T) {
	plain := errors.New("plain")
	assert.Nil(t, AsError(plain))
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, ErrorCode(""), GetErrorCode(plain))
}
