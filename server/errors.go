// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"errors"
	"fmt"

	"github.com/z5labs/wsrvr/conntrack"
)

var (
	ErrMissingSettings    = errors.New("missing server settings")
	ErrInvalidPort        = errors.New("port must be between 0 and 65535")
	ErrInvalidCredentials = errors.New("invalid tls credentials")
)

// ConfigurationError is returned by [Manager.Start] when the [Settings]
// can not be turned into a running server.
type ConfigurationError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid server configuration: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigurationError) Unwrap() error {
	return e.Cause
}

// BindError is returned by [Manager.Start] when listening on Addr fails.
type BindError struct {
	Addr  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BindError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %s", e.Addr, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BindError) Unwrap() error {
	return e.Cause
}

// DrainError is returned by [Manager.Stop] when an open connection
// fails to close.
type DrainError = conntrack.DrainError

// LeakError is returned by [Manager.Stop] when its context is done
// before every open connection acknowledged being closed.
type LeakError = conntrack.LeakError
