// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "path/filepath"

// Index is the index (or single page app) page. The zero value means
// there is no index page.
type Index struct {
	// File is an absolute path.
	File string

	// RootOnly serves File only on "/" instead of on every path.
	RootOnly bool
}

// NewIndex validates and creates an [Index]. The file must have an
// extension and is resolved to an absolute path.
func NewIndex(file string, rootOnly bool) (Index, error) {
	if len(filepath.Ext(file)) < 2 {
		return Index{}, ValidationError{Field: "file", Value: file, Cause: ErrInvalidFile}
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return Index{}, ValidationError{Field: "file", Value: file, Cause: err}
	}
	return Index{File: abs, RootOnly: rootOnly}, nil
}

// IsSet reports whether an index file was configured.
func (idx Index) IsSet() bool {
	return idx.File != ""
}
