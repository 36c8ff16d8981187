package studyai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by every operation when no credential is configured.
	ErrMissingAPIKey = errors.New("AI API key is not configured")
	// ErrEmptyResponse is returned when the provider answers with no usable content.
	ErrEmptyResponse = errors.New("empty response from AI provider")
	// ErrMalformedResponse is returned when structured output cannot be decoded.
	ErrMalformedResponse = errors.New("AI response could not be parsed")
)

// Error reports which study-tool operation failed and why.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
