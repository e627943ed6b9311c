package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every local validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrStale is returned when a newer request for the same data finished
	// first. The stale result was discarded.
	ErrStale = errors.New("stale response discarded")

	// ErrNotLoggedIn is returned when an operation needs a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// ValidationError reports a problem caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func required(field string) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s required", field)}
}
