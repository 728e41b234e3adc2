package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/tablesales/internal/validation"
)

// Conflict reasons.
const (
	ReasonTableOccupied        = "table_occupied"
	ReasonTableNotFree         = "table_not_free"
	ReasonSaleNotOpen          = "sale_not_open"
	ReasonInvalidTransition    = "invalid_transition"
	ReasonDuplicateTableNumber = "duplicate_table_number"
)

var (
	ErrNotFound = errors.New("not_found")

	ErrAlreadyOccupied   = &ConflictError{Reason: ReasonTableOccupied}
	ErrTableNotFree      = &ConflictError{Reason: ReasonTableNotFree}
	ErrSaleNotOpen       = &ConflictError{Reason: ReasonSaleNotOpen}
	ErrInvalidTransition = &ConflictError{Reason: ReasonInvalidTransition}
	ErrDuplicateNumber   = &ConflictError{Reason: ReasonDuplicateTableNumber}
)

// ValidationError rejects input before any state changes.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation_failed: %v", map[string]string(e.Violations))
}

// invalid returns a ValidationError if v holds anything, nil otherwise.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ConflictError reports an operation refused by the current state.
// Two conflict errors match under errors.Is when their reasons match.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

func (e *ConflictError) Is(target error) bool {
	t, ok := target.(*ConflictError)
	return ok && t.Reason == e.Reason
}

// PersistenceError wraps a datastore failure. In-memory state is left
// as it was before the operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "persistence_failed: " + e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// persist classifies a datastore error: domain errors pass through,
// anything else becomes a PersistenceError for op.
func persist(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConflictError
	var pe *PersistenceError
	if errors.Is(err, ErrNotFound) || errors.As(err, &ce) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
