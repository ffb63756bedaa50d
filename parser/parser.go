// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package parser provides request body parsing middlewares.
//
// A parser only consumes the body when no earlier parser already did,
// the request has a body and its Content-Type matches one of the
// parsers accepted types. Otherwise the request is passed along untouched.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/resource"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type bodyCtxKey struct{}

type parsedBody struct {
	kind  resource.ParserKind
	value any
}

// Body returns the parsed request body or nil if no parser consumed it.
// JSON bodies are any, text bodies string, raw bodies []byte and
// url-encoded bodies [url.Values].
func Body(ctx context.Context) any {
	pb, ok := ctx.Value(bodyCtxKey{}).(parsedBody)
	if !ok {
		return nil
	}
	return pb.value
}

// Kind returns which parser consumed the request body.
func Kind(ctx context.Context) (resource.ParserKind, bool) {
	pb, ok := ctx.Value(bodyCtxKey{}).(parsedBody)
	return pb.kind, ok
}

type parseFunc func(b []byte, contentType string, o Options) (any, error)

var parseFuncs = map[resource.ParserKind]parseFunc{
	resource.ParserJSON:       parseJSON,
	resource.ParserText:       parseText,
	resource.ParserRaw:        parseRaw,
	resource.ParserURLEncoded: parseURLEncoded,
}

// Middleware builds the body parsing middleware declared by spec.
func Middleware(spec resource.ParserSpec) (middleware.Middleware, error) {
	o, err := DecodeOptions(spec.Kind, spec.Options)
	if err != nil {
		return nil, err
	}

	parse := parseFuncs[spec.Kind]
	matches := typeMatcher(o.Type)
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, parsed := Kind(r.Context()); parsed || !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}
			contentType := r.Header.Get("Content-Type")
			if !matches(contentType) {
				next.ServeHTTP(w, r)
				return
			}

			b, err := readBody(r, o)
			if err != nil {
				fail(w, err)
				return
			}
			v, err := parse(b, contentType, o)
			if err != nil {
				fail(w, err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(b))
			ctx := context.WithValue(r.Context(), bodyCtxKey{}, parsedBody{
				kind:  spec.Kind,
				value: v,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	return mw, nil
}

func fail(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var serr StatusError
	if errors.As(err, &serr) {
		status = serr.Status
	}
	http.Error(w, http.StatusText(status), status)
}

func firstByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func parseJSON(b []byte, contentType string, o Options) (any, error) {
	charset := charsetOf(contentType)
	if charset != "" && !strings.HasPrefix(charset, "utf-") {
		return nil, StatusError{
			Status: http.StatusUnsupportedMediaType,
			Cause:  fmt.Errorf("%w: %s", ErrUnsupportedCharset, charset),
		}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]any{}, nil
	}
	if *o.Strict {
		c := firstByte(b)
		if c != '{' && c != '[' {
			return nil, StatusError{
				Status: http.StatusBadRequest,
				Cause:  errors.New("strict json only accepts objects and arrays"),
			}
		}
	}

	var v any
	err := json.Unmarshal(b, &v)
	if err != nil {
		return nil, StatusError{Status: http.StatusBadRequest, Cause: err}
	}
	return v, nil
}

func parseText(b []byte, contentType string, o Options) (any, error) {
	charset := charsetOf(contentType)
	if charset == "" {
		charset = o.DefaultCharset
	}
	s, err := decodeCharset(b, charset)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func parseRaw(b []byte, _ string, _ Options) (any, error) {
	return b, nil
}

func parseURLEncoded(b []byte, contentType string, o Options) (any, error) {
	charset := charsetOf(contentType)
	if charset == "" {
		charset = "utf-8"
	}
	if charset != "utf-8" && charset != "iso-8859-1" {
		return nil, StatusError{
			Status: http.StatusUnsupportedMediaType,
			Cause:  fmt.Errorf("%w: %s", ErrUnsupportedCharset, charset),
		}
	}

	s, err := decodeCharset(b, charset)
	if err != nil {
		return nil, err
	}
	if strings.Count(s, "&")+1 > o.ParameterLimit {
		return nil, StatusError{Status: http.StatusRequestEntityTooLarge, Cause: ErrTooManyParameters}
	}

	vals, err := url.ParseQuery(s)
	if err != nil {
		return nil, StatusError{Status: http.StatusBadRequest, Cause: err}
	}
	return vals, nil
}

// charsets lists the body charsets besides utf-8 that can be decoded.
// us-ascii is a subset of latin1 so it shares its decoder.
var charsets = map[string]encoding.Encoding{
	"utf-8":      unicode.UTF8,
	"utf8":       unicode.UTF8,
	"us-ascii":   charmap.ISO8859_1,
	"ascii":      charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
	"latin1":     charmap.ISO8859_1,
}

func decodeCharset(b []byte, charset string) (string, error) {
	enc, ok := charsets[charset]
	if !ok {
		return "", StatusError{
			Status: http.StatusUnsupportedMediaType,
			Cause:  fmt.Errorf("%w: %s", ErrUnsupportedCharset, charset),
		}
	}
	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", StatusError{Status: http.StatusBadRequest, Cause: err}
	}
	return string(decoded), nil
}
