// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/wsrvr/middleware"
)

// ParserKind identifies a request body parser.
type ParserKind string

const (
	ParserJSON       ParserKind = "json"
	ParserText       ParserKind = "text"
	ParserRaw        ParserKind = "raw"
	ParserURLEncoded ParserKind = "urlencoded"
)

// ParserSpec declares a body parser and its options. Options are decoded
// when the server starts.
type ParserSpec struct {
	Kind    ParserKind
	Options map[string]any
}

// Advanced holds the per-route response headers and body parsers.
type Advanced struct {
	headers []middleware.Header
	parsers []ParserSpec
}

// Header sets a response header. Setting a header which was already set
// replaces its value but keeps its original position.
func (a *Advanced) Header(name, value string) *Advanced {
	for i, h := range a.headers {
		if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(name) {
			a.headers[i].Value = value
			return a
		}
	}
	a.headers = append(a.headers, middleware.Header{Name: name, Value: value})
	return a
}

// AllowedOrigins sets the Access-Control-Allow-Origin header.
func (a *Advanced) AllowedOrigins(origins ...string) *Advanced {
	return a.Header("Access-Control-Allow-Origin", strings.Join(origins, ", "))
}

// AllowedMethods sets the Access-Control-Allow-Methods header.
func (a *Advanced) AllowedMethods(methods ...string) *Advanced {
	return a.Header("Access-Control-Allow-Methods", strings.Join(methods, ", "))
}

// AllowedHeaders sets the Access-Control-Allow-Headers header.
func (a *Advanced) AllowedHeaders(headers ...string) *Advanced {
	return a.Header("Access-Control-Allow-Headers", strings.Join(headers, ", "))
}

// ExposedHeaders sets the Access-Control-Expose-Headers header.
func (a *Advanced) ExposedHeaders(headers ...string) *Advanced {
	return a.Header("Access-Control-Expose-Headers", strings.Join(headers, ", "))
}

// AllowCredentials sets the Access-Control-Allow-Credentials header to "true".
func (a *Advanced) AllowCredentials() *Advanced {
	return a.Header("Access-Control-Allow-Credentials", "true")
}

// PreflightMaxAge sets how long clients may cache a preflight response.
// The header value is in whole seconds.
func (a *Advanced) PreflightMaxAge(d time.Duration) *Advanced {
	return a.Header("Access-Control-Max-Age", strconv.FormatInt(int64(d/time.Second), 10))
}

// ResponseType sets the Content-Type header.
func (a *Advanced) ResponseType(mime string) *Advanced {
	return a.Header("Content-Type", mime)
}

// ParseJSON enables JSON body parsing.
func (a *Advanced) ParseJSON(opts map[string]any) *Advanced {
	return a.parser(ParserJSON, opts)
}

// ParseText enables plain text body parsing.
func (a *Advanced) ParseText(opts map[string]any) *Advanced {
	return a.parser(ParserText, opts)
}

// ParseRaw enables raw byte body parsing.
func (a *Advanced) ParseRaw(opts map[string]any) *Advanced {
	return a.parser(ParserRaw, opts)
}

// ParseURLEncoded enables url-encoded form body parsing.
func (a *Advanced) ParseURLEncoded(opts map[string]any) *Advanced {
	return a.parser(ParserURLEncoded, opts)
}

// a kind declared twice keeps its first position
func (a *Advanced) parser(kind ParserKind, opts map[string]any) *Advanced {
	for i, p := range a.parsers {
		if p.Kind == kind {
			a.parsers[i].Options = opts
			return a
		}
	}
	a.parsers = append(a.parsers, ParserSpec{Kind: kind, Options: opts})
	return a
}

// Headers returns a copy of the declared headers in declaration order.
func (a *Advanced) Headers() []middleware.Header {
	hs := make([]middleware.Header, len(a.headers))
	copy(hs, a.headers)
	return hs
}

// Parsers returns a copy of the declared parsers in declaration order.
func (a *Advanced) Parsers() []ParserSpec {
	ps := make([]ParserSpec, len(a.parsers))
	copy(ps, a.parsers)
	return ps
}
