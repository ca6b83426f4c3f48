package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAbandoned means a session expired before the user finished it.
	ErrAbandoned = errors.New("session abandoned")

	// ErrStaleReference means an entity picked from a snapshot is gone from the live collection.
	ErrStaleReference = errors.New("selection became invalid")

	// ErrHandleConsumed means an interaction handle was used to respond twice.
	ErrHandleConsumed = errors.New("interaction handle already used")

	// ErrNothingToSelect means a selector was opened over an empty collection.
	ErrNothingToSelect = errors.New("nothing to select")
)

// InvalidSelectionError reports a token that does not resolve to any offered option.
type InvalidSelectionError struct {
	Field string
	Token string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection for %s: %q", e.Field, e.Token)
}

// IncompleteError reports a draft finalized with a required field missing.
type IncompleteError struct {
	Field string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete task: %s is not set", e.Field)
}

// TransportError wraps a rejected render or update.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
