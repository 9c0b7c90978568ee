package llm

import (
	"context"
	"errors"
)

// WrapContextError converts context cancellation and deadline errors into the typed
// AbortError and RequestTimeoutError; other errors pass through unchanged.
func WrapContextError(provider string, err error) error {
	return wrapContextError(provider, err)
}

func wrapContextError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return NewAbortError(err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewRequestTimeoutError(provider, err.Error())
	}
	return err
}
