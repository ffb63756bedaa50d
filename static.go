// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wsrvr

import (
	"slices"
	"sync"
	"time"

	"github.com/z5labs/wsrvr/pkg/ptr"
	"github.com/z5labs/wsrvr/resource"
)

// StaticOption configures a static mount.
type StaticOption func(*resource.StaticOptions)

// Dotfiles sets how files and directories starting with a dot are served.
func Dotfiles(d resource.Dotfiles) StaticOption {
	return func(so *resource.StaticOptions) {
		so.Dotfiles = d
	}
}

// MaxAge sets the Cache-Control max-age sent with every file.
func MaxAge(d time.Duration) StaticOption {
	return func(so *resource.StaticOptions) {
		so.MaxAge = d
	}
}

// ETag toggles sending a weak ETag with every file.
func ETag(enabled bool) StaticOption {
	return func(so *resource.StaticOptions) {
		so.ETag = ptr.Ref(enabled)
	}
}

// IndexOption configures the index page.
type IndexOption func(*indexOptions)

type indexOptions struct {
	rootOnly bool
}

// RootOnly controls whether the index page is only served on "/" or on
// every path left unhandled by the API routes and static files. It
// defaults to true.
func RootOnly(rootOnly bool) IndexOption {
	return func(o *indexOptions) {
		o.rootOnly = rootOnly
	}
}

// StaticConfigurator declares static files and the index page.
type StaticConfigurator struct {
	mu        sync.Mutex
	resources []resource.Static
	index     resource.Index
}

// Add mounts the file or directory at path on route.
func (c *StaticConfigurator) Add(route, path string, opts ...StaticOption) (resource.Static, error) {
	var so resource.StaticOptions
	for _, opt := range opts {
		opt(&so)
	}

	res, err := resource.NewStatic(route, path, so)
	if err != nil {
		return resource.Static{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, res)
	return res, nil
}

// Index sets the index page. Setting it again replaces it.
func (c *StaticConfigurator) Index(file string, opts ...IndexOption) error {
	o := &indexOptions{rootOnly: true}
	for _, opt := range opts {
		opt(o)
	}

	idx, err := resource.NewIndex(file, o.rootOnly)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = idx
	return nil
}

// Resources returns the static mounts in declaration order.
func (c *StaticConfigurator) Resources() []resource.Static {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.resources)
}

// IndexConfig returns the index page, the zero value if it was not set.
func (c *StaticConfigurator) IndexConfig() resource.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}
