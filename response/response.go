// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package response provides a [http.ResponseWriter] whose status code stays
// mutable until the response is actually committed.
//
// A [Writer] starts out with a pending status of 404. Middlewares may change
// the pending status any number of times with WriteHeader. The status is only
// sent once the first byte of the body is written, the response is flushed or
// [End] is called. This lets "nothing handled this request" resolve to a 404
// without any code having to say so.
package response

import (
	"net/http"
	"sync"
)

// DefaultStatus is the status every [Writer] starts with.
const DefaultStatus = http.StatusNotFound

// Writer wraps a [http.ResponseWriter] and defers sending the status code.
type Writer struct {
	w http.ResponseWriter

	mu        sync.Mutex
	status    int
	committed bool
}

// Wrap returns a [Writer] around w with a pending status of [DefaultStatus].
func Wrap(w http.ResponseWriter) *Writer {
	return &Writer{
		w:      w,
		status: DefaultStatus,
	}
}

// Header implements the [http.ResponseWriter] interface.
func (rw *Writer) Header() http.Header {
	return rw.w.Header()
}

// WriteHeader records code as the pending status. It has no effect
// once the response has been committed.
func (rw *Writer) WriteHeader(code int) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.committed {
		return
	}
	rw.status = code
}

// Write implements the [http.ResponseWriter] interface. The pending
// status is committed before the first byte is written.
func (rw *Writer) Write(b []byte) (int, error) {
	rw.commit()
	return rw.w.Write(b)
}

// Flush commits the pending status and flushes the underlying writer, if it supports it.
func (rw *Writer) Flush() {
	rw.commit()
	f, ok := rw.w.(http.Flusher)
	if !ok {
		return
	}
	f.Flush()
}

// Unwrap returns the underlying [http.ResponseWriter] so [http.ResponseController]
// can reach it.
func (rw *Writer) Unwrap() http.ResponseWriter {
	return rw.w
}

// Status returns the pending status, or the sent one if the response was committed.
func (rw *Writer) Status() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.status
}

// Committed reports whether the status has been sent.
func (rw *Writer) Committed() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.committed
}

// End commits the pending status if nothing has been sent yet.
func (rw *Writer) End() {
	rw.commit()
}

func (rw *Writer) commit() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.committed {
		return
	}
	rw.committed = true
	rw.w.WriteHeader(rw.status)
}

// From walks the Unwrap chain of w looking for a [Writer].
func From(w http.ResponseWriter) (*Writer, bool) {
	for w != nil {
		if rw, ok := w.(*Writer); ok {
			return rw, true
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return nil, false
		}
		w = u.Unwrap()
	}
	return nil, false
}

// Status returns the pending status of the [Writer] behind w. If w isn't
// backed by a [Writer] it returns [DefaultStatus].
func Status(w http.ResponseWriter) int {
	rw, ok := From(w)
	if !ok {
		return DefaultStatus
	}
	return rw.Status()
}

// Committed reports whether the [Writer] behind w has sent its status.
func Committed(w http.ResponseWriter) bool {
	rw, ok := From(w)
	if !ok {
		return false
	}
	return rw.Committed()
}

// End commits the response behind w. Writers which aren't backed by
// a [Writer] are left alone since net/http ends them when the handler returns.
func End(w http.ResponseWriter) {
	rw, ok := From(w)
	if !ok {
		return
	}
	rw.End()
}
