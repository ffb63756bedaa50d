// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"net/http"
	"strings"
)

// Method is a supported HTTP method.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodPatch   Method = http.MethodPatch
	MethodOptions Method = http.MethodOptions
)

// Methods returns every supported [Method].
func Methods() []Method {
	return []Method{
		MethodGet,
		MethodPost,
		MethodPut,
		MethodDelete,
		MethodHead,
		MethodPatch,
		MethodOptions,
	}
}

// ParseMethod normalizes s to upper case and checks it's supported.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, supported := range Methods() {
		if m == supported {
			return m, nil
		}
	}
	return "", ValidationError{
		Field: "method",
		Value: s,
		Cause: ErrUnsupportedMethod,
	}
}

// ParseMethods parses each entry of ss. Entries may themselves be comma
// separated lists e.g. "GET,POST". Duplicates are dropped while keeping
// the first occurrence's position.
func ParseMethods(ss ...string) ([]Method, error) {
	var ms []Method
	seen := make(map[Method]struct{})
	for _, s := range ss {
		for _, part := range strings.Split(s, ",") {
			m, err := ParseMethod(part)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			ms = append(ms, m)
		}
	}
	if len(ms) == 0 {
		return nil, ValidationError{
			Field: "methods",
			Value: strings.Join(ss, ","),
			Cause: ErrNoMethods,
		}
	}
	return ms, nil
}
