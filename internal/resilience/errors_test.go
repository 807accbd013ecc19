package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestErrNotFound(t *testing.T) {
	wrapped := eris.Wrap(ErrNotFound, "store: find brewery")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, IsTransient(wrapped))
}

func TestUnreachableError(t *testing.T) {
	err := NewUnreachable("duckduckgo", errors.New("dial tcp: i/o timeout"))

	assert.True(t, IsUnreachable(err))
	assert.True(t, IsUnreachable(fmt.Errorf("search: %w", err)))
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "duckduckgo")
}

func TestLowConfidenceError(t *testing.T) {
	err := &LowConfidenceError{Score: 35, Reason: "score 35 below 60 and no website"}

	assert.True(t, IsLowConfidence(err))
	assert.True(t, IsLowConfidence(fmt.Errorf("gate: %w", err)))
	assert.False(t, IsTransient(err))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("parse failure")))
	assert.True(t, IsTransient(NewTransientError(errors.New("429"), 429)))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("lookup brewery.example: no such host")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
