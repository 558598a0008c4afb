package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Precondition errors
	ErrEmptySeries            = errors.New("series has no samples")
	ErrInsufficientConditions = errors.New("insufficient conditions for comparison")
	ErrInsufficientUsageData  = errors.New("insufficient phone-usage data for correlation")

	// Lookup errors
	ErrNotFound          = errors.New("resource not found")
	ErrConditionNotFound = fmt.Errorf("%w: condition", ErrNotFound)

	// Ingestion errors (adapter layer only; the core never sees raw records)
	ErrUnparsableSample = errors.New("sample could not be parsed")
	ErrNoUsableRows     = errors.New("no usable rows in input")
)

// Error constructors with context
func NewConditionNotFoundError(name string) error {
	return fmt.Errorf("%w: %s", ErrConditionNotFound, name)
}

func NewUnparsableSampleError(line int, raw string) error {
	return fmt.Errorf("%w: line %d: %q", ErrUnparsableSample, line, raw)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrEmptySeries) ||
		errors.Is(err, ErrInsufficientConditions) ||
		errors.Is(err, ErrInsufficientUsageData)
}
