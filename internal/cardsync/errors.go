package cardsync

import (
	"errors"
	"fmt"
)

// ValidationError is returned when a caller passes an argument the service
// refuses before touching the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError is a failed write for one card during reconciliation.
type PersistenceError struct {
	CardID string
	Op     string // "lookup", "insert" or "update"
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s card %s: %v", e.Op, e.CardID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
