package table

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed arguments: unknown operator,
	// strategy or aggregation names, bad bin specifications, ragged input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a referenced column does not exist.
	ErrNotFound = errors.New("not found")
)

// Invalidf returns an error wrapping ErrInvalidArgument.
//
//	Invalidf("unknown strategy %q", s) // invalid argument: unknown strategy "mode"
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error wrapping ErrNotFound.
//
//	NotFoundf("column %q", name) // column "age" not found
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s %w", fmt.Sprintf(format, args...), ErrNotFound)
}
