package mapper

import (
	"errors"
	"fmt"

	"github.com/georgekorob/patterns-project/internal/domain"
)

// ErrNotFound matches every RecordNotFoundError via errors.Is.
var ErrNotFound = errors.New("record not found")

// RecordNotFoundError is returned when a lookup matches no row.
// ID is 0 when the lookup had no key (Last on an empty table).
type RecordNotFoundError struct {
	Table string
	ID    int64
}

func (e *RecordNotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("record not found: table %s is empty", e.Table)
	}
	return fmt.Sprintf("record not found: %s with id=%d", e.Table, e.ID)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DbCommitError wraps a failed insert.
type DbCommitError struct {
	Table string
	Err   error
}

func (e *DbCommitError) Error() string {
	return fmt.Sprintf("db commit error: %s: %v", e.Table, e.Err)
}

func (e *DbCommitError) Unwrap() error { return e.Err }

// DbUpdateError wraps a failed update.
type DbUpdateError struct {
	Table string
	Err   error
}

func (e *DbUpdateError) Error() string {
	return fmt.Sprintf("db update error: %s: %v", e.Table, e.Err)
}

func (e *DbUpdateError) Unwrap() error { return e.Err }

// DbDeleteError wraps a failed delete.
type DbDeleteError struct {
	Table string
	Err   error
}

func (e *DbDeleteError) Error() string {
	return fmt.Sprintf("db delete error: %s: %v", e.Table, e.Err)
}

func (e *DbDeleteError) Unwrap() error { return e.Err }

// UnknownKindError is returned by the registry for a kind that was never
// registered.
type UnknownKindError struct {
	Kind domain.Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("no schema registered for kind %q", e.Kind)
}
