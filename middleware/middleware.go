// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package middleware defines the handler chain type route resources are built from.
package middleware

import "net/http"

// Middleware wraps the next handler in the chain. A middleware which
// fully handles a request simply doesn't call next.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered list of [Middleware].
//
// Chain(a, b, c).Then(h) returns a(b(c(h))), so a runs first.
type Chain []Middleware

// Then composes the chain around h. Nil middlewares are skipped.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		h = c[i](h)
	}
	return h
}

// Handler turns h into a terminal [Middleware] which never calls next.
func Handler(h http.Handler) Middleware {
	return func(http.Handler) http.Handler {
		return h
	}
}

// HandlerFunc is the func variant of [Handler].
func HandlerFunc(f func(http.ResponseWriter, *http.Request)) Middleware {
	return Handler(http.HandlerFunc(f))
}

// Header is a single response header.
type Header struct {
	Name  string
	Value string
}

// SetHeaders returns a [Middleware] which sets every header, in order, on
// the response and then calls next.
func SetHeaders(headers []Header) Middleware {
	hs := make([]Header, len(headers))
	copy(hs, headers)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, h := range hs {
				w.Header().Set(h.Name, h.Value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetStatus returns a [Middleware] which sets the response status and then
// calls next. Paired with a [response.Writer] the status stays pending
// until the response is committed.
func SetStatus(code int) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			next.ServeHTTP(w, r)
		})
	}
}
