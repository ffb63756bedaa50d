// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/z5labs/wsrvr/config"
	"github.com/z5labs/wsrvr/pkg/ptr"
	"github.com/z5labs/wsrvr/resource"
)

// DefaultLimit is the max body size accepted when no limit is configured.
const DefaultLimit ByteSize = 100 * 1024

// DefaultParameterLimit is the max number of url-encoded parameters
// accepted when no limit is configured.
const DefaultParameterLimit = 1000

// ByteSize is a number of bytes. It can be decoded from plain integers
// or human readable strings like "100kb" or "1.5mb".
type ByteSize int64

var errInvalidByteSize = errors.New("invalid byte size")

var byteUnits = map[string]float64{
	"":   1,
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (b *ByteSize) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}

	mult, ok := byteUnits[unit]
	if !ok || num == "" {
		return fmt.Errorf("%w: %q", errInvalidByteSize, string(text))
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", errInvalidByteSize, string(text))
	}
	*b = ByteSize(f * mult)
	return nil
}

// Options configures a body parser. Not every option applies to every kind.
type Options struct {
	// Limit is the max body size after decompression.
	Limit ByteSize `config:"limit"`

	// Type lists the media types this parser accepts.
	Type []string `config:"type"`

	// Inflate enables gzip and deflate request bodies. Defaults to true.
	Inflate *bool `config:"inflate"`

	// Strict only accepts JSON objects and arrays. Defaults to true.
	Strict *bool `config:"strict"`

	// DefaultCharset is used for text bodies without a charset.
	DefaultCharset string `config:"default_charset"`

	// ParameterLimit is the max number of url-encoded parameters.
	ParameterLimit int `config:"parameter_limit"`
}

// OptionsError is returned when a parsers options can not be decoded.
type OptionsError struct {
	Kind  resource.ParserKind
	Cause error
}

// Error implements the [builtin.error] interface.
func (e OptionsError) Error() string {
	return fmt.Sprintf("invalid %s parser options: %s", e.Kind, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e OptionsError) Unwrap() error {
	return e.Cause
}

// DecodeOptions decodes opts and fills in the defaults for the given kind.
func DecodeOptions(kind resource.ParserKind, opts map[string]any) (Options, error) {
	defaultType, ok := defaultTypes[kind]
	if !ok {
		return Options{}, resource.ValidationError{
			Field: "parser",
			Value: kind,
			Cause: resource.ErrUnknownParser,
		}
	}

	m, err := config.Read(config.Map(opts))
	if err != nil {
		return Options{}, OptionsError{Kind: kind, Cause: err}
	}

	var o Options
	err = m.Unmarshal(&o)
	if err != nil {
		return Options{}, OptionsError{Kind: kind, Cause: err}
	}

	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if len(o.Type) == 0 {
		o.Type = []string{defaultType}
	}
	if o.Inflate == nil {
		o.Inflate = ptr.Ref(true)
	}
	if o.Strict == nil {
		o.Strict = ptr.Ref(true)
	}
	o.DefaultCharset = strings.ToLower(o.DefaultCharset)
	if o.DefaultCharset == "" {
		o.DefaultCharset = "utf-8"
	}
	if o.ParameterLimit <= 0 {
		o.ParameterLimit = DefaultParameterLimit
	}
	return o, nil
}

var defaultTypes = map[resource.ParserKind]string{
	resource.ParserJSON:       "application/json",
	resource.ParserText:       "text/plain",
	resource.ParserRaw:        "application/octet-stream",
	resource.ParserURLEncoded: "application/x-www-form-urlencoded",
}
