// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package header classifies response header names by their role in CORS.
package header

import "strings"

// Preflight lists the CORS headers which belong in a preflight response.
var Preflight = []string{
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Credentials",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Max-Age",
}

// CORS lists the CORS headers which may be used in actual (non-preflight) responses.
var CORS = []string{
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Credentials",
	"Access-Control-Expose-Headers",
}

// IsPreflight reports whether name is one of the [Preflight] headers.
// The comparison is case-insensitive.
func IsPreflight(name string) bool {
	return contains(Preflight, name)
}

// IsEligibleOutsidePreflight reports whether name may be set on
// responses other than preflight ones. That is either one of the
// [CORS] headers or a header which isn't preflight related at all.
func IsEligibleOutsidePreflight(name string) bool {
	return contains(CORS, name) || !IsPreflight(name)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
