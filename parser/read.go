// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/z5labs/wsrvr/internal/try"
)

// StatusError is a request body failure which maps to an HTTP status.
type StatusError struct {
	Status int
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e StatusError) Unwrap() error {
	return e.Cause
}

var (
	ErrTooLarge            = errors.New("request entity too large")
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
	ErrUnsupportedCharset  = errors.New("unsupported charset")
	ErrTooManyParameters   = errors.New("too many parameters")
)

func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	return r.ContentLength != 0 || len(r.TransferEncoding) > 0
}

// readBody reads the whole, possibly compressed, request body
// while enforcing the configured limit.
func readBody(r *http.Request, o Options) (b []byte, err error) {
	encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding")))
	if encoding == "" {
		encoding = "identity"
	}
	if encoding != "identity" && !*o.Inflate {
		return nil, StatusError{
			Status: http.StatusUnsupportedMediaType,
			Cause:  fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding),
		}
	}
	if encoding == "identity" && r.ContentLength > int64(o.Limit) {
		return nil, StatusError{Status: http.StatusRequestEntityTooLarge, Cause: ErrTooLarge}
	}

	body, err := inflate(encoding, r.Body)
	if err != nil {
		return nil, err
	}
	defer try.Close(&err, body)

	b, err = io.ReadAll(io.LimitReader(body, int64(o.Limit)+1))
	if err != nil {
		return nil, StatusError{Status: http.StatusBadRequest, Cause: err}
	}
	if int64(len(b)) > int64(o.Limit) {
		return nil, StatusError{Status: http.StatusRequestEntityTooLarge, Cause: ErrTooLarge}
	}
	return b, nil
}

func inflate(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch encoding {
	case "identity":
		return io.NopCloser(r), nil
	case "gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, StatusError{Status: http.StatusBadRequest, Cause: err}
		}
		return zr, nil
	case "deflate":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, StatusError{Status: http.StatusBadRequest, Cause: err}
		}
		return zr, nil
	default:
		return nil, StatusError{
			Status: http.StatusUnsupportedMediaType,
			Cause:  fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding),
		}
	}
}
