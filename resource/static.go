// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"path/filepath"
	"time"

	"github.com/z5labs/wsrvr/pkg/ptr"
)

// Dotfiles controls how files or directories starting with a dot are served.
type Dotfiles string

const (
	DotfilesAllow  Dotfiles = "allow"
	DotfilesDeny   Dotfiles = "deny"
	DotfilesIgnore Dotfiles = "ignore"
)

// StaticOptions configures how a [Static] resource is served.
type StaticOptions struct {
	// Dotfiles defaults to [DotfilesIgnore].
	Dotfiles Dotfiles `config:"dotfiles"`

	// MaxAge is sent as the Cache-Control max-age. Zero means max-age=0.
	MaxAge time.Duration `config:"max_age"`

	// ETag defaults to true.
	ETag *bool `config:"etag"`
}

// Static mounts a file or directory on a route.
type Static struct {
	Route   string
	Path    string
	Options StaticOptions
}

// NewStatic validates and creates a [Static] resource. Relative paths are
// resolved against the current working directory.
func NewStatic(route, path string, opts StaticOptions) (Static, error) {
	err := validateRoute(route)
	if err != nil {
		return Static{}, err
	}
	if path == "" {
		return Static{}, ValidationError{Field: "path", Value: path, Cause: ErrInvalidPath}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Static{}, ValidationError{Field: "path", Value: path, Cause: err}
	}

	switch opts.Dotfiles {
	case "":
		opts.Dotfiles = DotfilesIgnore
	case DotfilesAllow, DotfilesDeny, DotfilesIgnore:
	default:
		return Static{}, ValidationError{Field: "dotfiles", Value: opts.Dotfiles, Cause: ErrInvalidDotfiles}
	}
	if opts.ETag == nil {
		opts.ETag = ptr.Ref(true)
	}

	s := Static{
		Route:   route,
		Path:    abs,
		Options: opts,
	}
	return s, nil
}
