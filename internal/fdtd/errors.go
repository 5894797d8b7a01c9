package fdtd

import (
	"errors"
	"fmt"
)

// Domain errors for solver configuration and field access.
var (
	// ErrInvalidParameter indicates a configuration value outside its valid range.
	ErrInvalidParameter = errors.New("fdtd: invalid parameter")

	// ErrOutOfRange indicates a field index outside [0, nx).
	ErrOutOfRange = errors.New("fdtd: index out of range")
)

// ParamError describes which parameter was rejected and why.
type ParamError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidParameter, e.Field, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

func outOfRange(i, n int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, n)
}
