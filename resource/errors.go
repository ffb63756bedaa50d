// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"errors"
	"fmt"
)

var (
	ErrNoMethods         = errors.New("at least one http method is required")
	ErrUnsupportedMethod = errors.New("unsupported http method")
	ErrInvalidRoute      = errors.New("route must start with a '/'")
	ErrInvalidPath       = errors.New("path must not be empty")
	ErrInvalidFile       = errors.New("must be a path to a file")
	ErrUnknownParser     = errors.New("unknown parser kind")
	ErrInvalidDotfiles   = errors.New("dotfiles must be one of allow, deny or ignore")
)

// ValidationError is returned when a resource declaration is invalid.
// It's always returned at declaration time, never deferred to start.
type ValidationError struct {
	Field string
	Value any
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ValidationError) Unwrap() error {
	return e.Cause
}
