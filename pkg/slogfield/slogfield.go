// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides typed constructors for the [slog.Attr]s
// logged across the server.
package slogfield

import (
	"log/slog"
	"time"
)

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Uint64 returns an slog.Attr for a uint64.
func Uint64(key string, n uint64) slog.Attr {
	return slog.Uint64(key, n)
}

// Uint64s returns an slog.Attr for a slice of uint64s.
func Uint64s(key string, ns []uint64) slog.Attr {
	return slog.Any(key, ns)
}
