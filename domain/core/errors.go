package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound          = errors.New("resource not found")
	ErrResultFileMissing = fmt.Errorf("%w: result file", ErrNotFound)
	ErrResultsDirMissing = fmt.Errorf("%w: results directory", ErrNotFound)

	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrMissingTrueAUC   = errors.New("no unpermuted AUC for method/diagnosis")
	ErrRowCountMismatch = errors.New("unexpected number of trial rows")
	ErrMalformedTable   = errors.New("malformed results table")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewRowCountError(path string, got, want int) error {
	return fmt.Errorf("%w: %s has %d rows, expected %d", ErrRowCountMismatch, path, got, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrRowCountMismatch) ||
		errors.Is(err, ErrMalformedTable)
}
