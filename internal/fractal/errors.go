package fractal

import (
	"errors"
	"fmt"
)

// Domain errors for point-field generation.
var (
	// ErrParameterBounds indicates a parameter value is outside its valid range.
	ErrParameterBounds = errors.New("fractal: parameter out of valid bounds")

	// ErrCanceled indicates generation was interrupted before the lattice was exhausted.
	ErrCanceled = errors.New("fractal: generation canceled by context")

	// ErrUnknownKeyMode indicates an unsupported registry key mode.
	ErrUnknownKeyMode = errors.New("fractal: unknown registry key mode")
)

// ParamError names the parameter that failed validation.
type ParamError struct {
	Field string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("fractal: %s=%g out of valid bounds", e.Field, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}
