// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package static serves files from disk.
package static

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/wsrvr/resource"

	"github.com/gorilla/mux"
)

// Mount serves a file or a directory tree below a route. A file mount
// only answers on its own route.
type Mount struct {
	res      resource.Static
	prefix   string
	fallback http.Handler
}

// NewMount returns a [Mount] for the given resource. The fallback handles
// requests which matched but whose file disappeared before being served.
func NewMount(res resource.Static, fallback http.Handler) *Mount {
	return &Mount{
		res:      res,
		prefix:   strings.TrimSuffix(res.Route, "/"),
		fallback: fallback,
	}
}

// Match implements [mux.MatcherFunc].
func (m *Mount) Match(r *http.Request, _ *mux.RouteMatch) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	_, _, ok := m.resolve(r.URL.Path)
	return ok
}

type target struct {
	name string
	info fs.FileInfo
}

// resolve maps a request path to the file it would serve. A denied dotfile
// resolves with a nil target.
func (m *Mount) resolve(urlPath string) (*target, bool, bool) {
	rel, ok := m.relative(urlPath)
	if !ok {
		return nil, false, false
	}

	if hasDotSegment(rel) {
		switch m.res.Options.Dotfiles {
		case resource.DotfilesDeny:
			return nil, true, true
		case resource.DotfilesAllow:
		default:
			return nil, false, false
		}
	}

	name := filepath.Join(m.res.Path, filepath.FromSlash(rel))
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return nil, false, false
	}
	return &target{name: name, info: info}, false, true
}

func (m *Mount) relative(urlPath string) (string, bool) {
	if m.prefix != "" && urlPath != m.prefix && !strings.HasPrefix(urlPath, m.prefix+"/") {
		return "", false
	}
	return path.Clean("/" + strings.TrimPrefix(urlPath, m.prefix)), true
}

func hasDotSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// ServeHTTP implements the [http.Handler] interface.
func (m *Mount) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t, denied, ok := m.resolve(r.URL.Path)
	if denied {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if !ok {
		m.fallback.ServeHTTP(w, r)
		return
	}

	f, err := os.Open(t.name)
	if err != nil {
		m.fallback.ServeHTTP(w, r)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Cache-Control", "public, max-age="+strconv.FormatInt(int64(m.res.Options.MaxAge/time.Second), 10))
	if m.res.Options.ETag == nil || *m.res.Options.ETag {
		h.Set("ETag", weakETag(t.info))
	}

	w.WriteHeader(http.StatusOK)
	http.ServeContent(w, r, t.info.Name(), t.info.ModTime(), f)
}

func weakETag(info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().UnixMilli())
}
