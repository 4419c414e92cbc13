package call

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks requests missing required fields; no provider call is
// attempted for them.
var ErrInvalidInput = errors.New("invalid input")

// ProviderError wraps a failed transcription, dialogue, or synthesis call.
// The HTTP layer maps it to a 5xx with the provider's message embedded.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedFeedbackError reports an evaluator response that did not decode as
// the feedback structure. Raw carries the verbatim response text.
type MalformedFeedbackError struct {
	Raw string
	Err error
}

func (e *MalformedFeedbackError) Error() string {
	return fmt.Sprintf("malformed feedback response: %v", e.Err)
}

func (e *MalformedFeedbackError) Unwrap() error { return e.Err }
