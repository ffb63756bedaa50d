// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package static

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/z5labs/wsrvr/resource"

	"github.com/gorilla/mux"
)

// Index serves the index page.
type Index struct {
	file     string
	fallback http.Handler
}

// NewIndex returns an [Index] serving the configured index file.
func NewIndex(idx resource.Index, fallback http.Handler) *Index {
	return &Index{
		file:     idx.File,
		fallback: fallback,
	}
}

// Match implements [mux.MatcherFunc].
func (idx *Index) Match(r *http.Request, _ *mux.RouteMatch) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	info, err := os.Stat(idx.file)
	return err == nil && !info.IsDir()
}

// ServeHTTP implements the [http.Handler] interface.
func (idx *Index) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(idx.file)
	if err != nil {
		idx.fallback.ServeHTTP(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		idx.fallback.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=0")
	w.Header().Set("ETag", weakETag(info))
	w.WriteHeader(http.StatusOK)
	http.ServeContent(w, r, filepath.Base(idx.file), info.ModTime(), f)
}
