package shared

import (
	"errors"
	"fmt"
)

// Error taxonomy sentinels. Domain packages wrap these with fmt.Errorf so
// handlers can classify failures with errors.Is without importing every
// domain package.
var (
	// ErrValidation indicates malformed or missing client input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate unique field or an optimistic
	// update mismatch.
	ErrConflict = errors.New("conflict")
	// ErrBusinessRule indicates a rejected state transition or a violated
	// monetary/stock rule. Maps to 400 but carries a specific message.
	ErrBusinessRule = errors.New("business rule violated")
	// ErrDependency indicates persistence or an external collaborator is
	// unreachable.
	ErrDependency = errors.New("dependency unavailable")
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors aggregates per-field validation failures.
type FieldErrors []FieldError

// Error implements error.
func (f FieldErrors) Error() string {
	return fmt.Sprintf("%v: %d field(s) invalid", ErrValidation, len(f))
}

// Unwrap ties FieldErrors into the taxonomy so errors.Is(err, ErrValidation)
// holds.
func (f FieldErrors) Unwrap() error {
	return ErrValidation
}
