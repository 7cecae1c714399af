package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks operations referencing a snapshot that does not exist.
	ErrConflict = errors.New("conflict")
	// ErrStructural marks input that could not be read at all (bad xlsx, bad JSON).
	ErrStructural = errors.New("structural error")
)
