package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := NewBackend(Prometheus, "query_range", 500, "boom", "")
	wrapped := fmt.Errorf("fetch metrics: %w", base)

	assert.Equal(t, Backend, KindOf(wrapped))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestIsMatchesKindAndBackend(t *testing.T) {
	err := fmt.Errorf("x: %w", NewDecode(Anthropic, "messages", []byte(`{}`), errors.New("empty content")))

	assert.True(t, errors.Is(err, &Error{Kind: Decode}))
	assert.True(t, errors.Is(err, &Error{Kind: Decode, Backend: Anthropic}))
	assert.False(t, errors.Is(err, &Error{Kind: Decode, Backend: Prometheus}))
	assert.False(t, errors.Is(err, &Error{Kind: Backend}))
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := NewBackend(Prometheus, "query_range", 503, strings.Repeat("x", 1000), "")
	msg := err.Error()

	assert.Contains(t, msg, "prometheus query_range")
	assert.Contains(t, msg, "HTTP 503")
	assert.Less(t, len(msg), 400, "body must be truncated in the message")
	assert.Len(t, err.Body, 1000, "full body stays on the error")
}

func TestErrorMessageOmitsBodyWhenMessageExtracted(t *testing.T) {
	body := `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`
	err := NewBackend(Anthropic, "messages", 401, body, "authentication_error: invalid x-api-key")

	assert.Equal(t, "anthropic messages: backend error (HTTP 401): authentication_error: invalid x-api-key", err.Error())
	assert.Equal(t, body, err.Body)
}

func TestTransportUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransport(Anthropic, "messages", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExitCode(t *testing.T) {
	cases := map[Kind]int{Config: 2, Input: 3, Transport: 4, Backend: 5, Decode: 6}
	for kind, want := range cases {
		assert.Equal(t, want, ExitCode(&Error{Kind: kind}), kind.String())
	}
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("other")))
}
