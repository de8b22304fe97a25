package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNameTaken is returned when a registration collides with an
	// existing name. Backends surface it from their own uniqueness
	// enforcement, never from a check-then-insert.
	ErrNameTaken = errors.New("name is taken")

	// ErrMissingSignature is returned when an update arrives without an
	// owner signature.
	ErrMissingSignature = errors.New("owner signature is required")
)

// NameNotFoundError indicates a lookup or update targeted a handle that is
// not registered.
type NameNotFoundError struct {
	Name string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("name %q is not registered", e.Name)
}

// InvalidInputError indicates a malformed name, address, or query. It is
// always client-correctable.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInvalidInput builds an InvalidInputError for a field.
func NewInvalidInput(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}
