package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals malformed or inconsistent averaging arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientDraws signals an allocation larger than the draws a model holds.
	ErrInsufficientDraws = errors.New("insufficient draws")
	// ErrUnsamplableModel signals a model the simulation engine cannot draw from (intercept-only).
	ErrUnsamplableModel = errors.New("unsamplable model")
	// ErrSimulationFailed signals any other simulation engine failure.
	ErrSimulationFailed = errors.New("simulation failed")
)

// InvalidInputf builds an error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InsufficientDrawsError wraps ErrInsufficientDraws with the offending model and counts.
type InsufficientDrawsError struct {
	Model     string
	Requested int
	Available int
}

func (e *InsufficientDrawsError) Error() string {
	return fmt.Sprintf("%s: model %q allocated %d draws but has %d",
		ErrInsufficientDraws.Error(), e.Model, e.Requested, e.Available)
}

func (e *InsufficientDrawsError) Unwrap() error { return ErrInsufficientDraws }

// UnsamplableModelError is raised by the simulation engine for models it cannot draw from.
type UnsamplableModelError struct {
	Model  string
	Reason string
}

func (e *UnsamplableModelError) Error() string {
	return fmt.Sprintf("%s: model %q: %s", ErrUnsamplableModel.Error(), e.Model, e.Reason)
}

func (e *UnsamplableModelError) Unwrap() error { return ErrUnsamplableModel }

// SimulationError wraps an engine failure that is not an UnsamplableModelError.
type SimulationError struct {
	Model string
	Err   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%s: model %q: %v", ErrSimulationFailed.Error(), e.Model, e.Err)
}

// Unwrap exposes both the sentinel and the engine cause.
func (e *SimulationError) Unwrap() []error { return []error{ErrSimulationFailed, e.Err} }
