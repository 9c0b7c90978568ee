package llm

import (
	"fmt"
	"strings"
)

// Error is implemented by every error this package produces. Retryable is advisory;
// nothing in this module retries on its own.
type Error interface {
	error
	Provider() string
	StatusCode() int
	Retryable() bool
}

type baseError struct {
	provider  string
	status    int
	message   string
	body      []byte
	retryable bool
}

func (e *baseError) Provider() string { return e.provider }
func (e *baseError) StatusCode() int  { return e.status }
func (e *baseError) Retryable() bool  { return e.retryable }

// Body returns the raw response body that accompanied an HTTP failure, if any.
func (e *baseError) Body() []byte { return e.body }

func (e *baseError) format(kind string) string {
	var b strings.Builder
	if e.provider != "" {
		b.WriteString(e.provider)
		b.WriteString(": ")
	}
	b.WriteString(kind)
	if e.status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.status)
	}
	if msg := strings.TrimSpace(e.message); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

type AuthenticationError struct{ baseError }
type AccessDeniedError struct{ baseError }
type NotFoundError struct{ baseError }
type InvalidRequestError struct{ baseError }
type ContextLengthError struct{ baseError }
type RateLimitError struct{ baseError }
type ServerError struct{ baseError }
type UnknownHTTPError struct{ baseError }
type RequestTimeoutError struct{ baseError }
type AbortError struct{ baseError }

// StreamError reports a transport stream that broke mid-turn: a framing error, an
// undecodable chunk, or a connection that dropped.
type StreamError struct{ baseError }

func (e *AuthenticationError) Error() string { return e.format("authentication failed") }
func (e *AccessDeniedError) Error() string   { return e.format("access denied") }
func (e *NotFoundError) Error() string       { return e.format("not found") }
func (e *InvalidRequestError) Error() string { return e.format("invalid request") }
func (e *ContextLengthError) Error() string  { return e.format("context length exceeded") }
func (e *RateLimitError) Error() string      { return e.format("rate limited") }
func (e *ServerError) Error() string         { return e.format("server error") }
func (e *UnknownHTTPError) Error() string    { return e.format("unexpected http status") }
func (e *RequestTimeoutError) Error() string { return e.format("request timed out") }
func (e *AbortError) Error() string          { return e.format("aborted") }
func (e *StreamError) Error() string         { return e.format("stream error") }

func NewAbortError(message string) error {
	return &AbortError{baseError{message: message}}
}

func NewRequestTimeoutError(provider, message string) error {
	return &RequestTimeoutError{baseError{provider: provider, message: message, retryable: true}}
}

func NewStreamError(provider, message string) error {
	return &StreamError{baseError{provider: provider, message: message, retryable: true}}
}

// ErrorFromHTTPStatus classifies a non-2xx response.
func ErrorFromHTTPStatus(provider string, status int, message string, body []byte) error {
	b := baseError{provider: provider, status: status, message: message, body: body}
	switch {
	case status == 400 || status == 422:
		return &InvalidRequestError{b}
	case status == 401:
		return &AuthenticationError{b}
	case status == 403:
		return &AccessDeniedError{b}
	case status == 404:
		return &NotFoundError{b}
	case status == 408:
		b.retryable = true
		return &RequestTimeoutError{b}
	case status == 413:
		return &ContextLengthError{b}
	case status == 429:
		b.retryable = true
		return &RateLimitError{b}
	case status >= 500 && status <= 504:
		b.retryable = true
		return &ServerError{b}
	default:
		b.retryable = status >= 500
		return &UnknownHTTPError{b}
	}
}
