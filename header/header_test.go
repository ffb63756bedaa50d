// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPreflight(t *testing.T) {
	testCases := []struct {
		Name      string
		Header    string
		Preflight bool
	}{
		{Name: "should match allow origin", Header: "Access-Control-Allow-Origin", Preflight: true},
		{Name: "should match allow credentials", Header: "Access-Control-Allow-Credentials", Preflight: true},
		{Name: "should match allow methods", Header: "Access-Control-Allow-Methods", Preflight: true},
		{Name: "should match allow headers", Header: "Access-Control-Allow-Headers", Preflight: true},
		{Name: "should match max age", Header: "Access-Control-Max-Age", Preflight: true},
		{Name: "should ignore case", Header: "access-control-allow-METHODS", Preflight: true},
		{Name: "should not match expose headers", Header: "Access-Control-Expose-Headers", Preflight: false},
		{Name: "should not match ordinary headers", Header: "Content-Type", Preflight: false},
		{Name: "should not match empty names", Header: "", Preflight: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert.Equal(t, testCase.Preflight, IsPreflight(testCase.Header))
		})
	}
}

func TestIsEligibleOutsidePreflight(t *testing.T) {
	testCases := []struct {
		Name     string
		Header   string
		Eligible bool
	}{
		{Name: "should allow allow origin", Header: "Access-Control-Allow-Origin", Eligible: true},
		{Name: "should allow allow credentials", Header: "access-control-allow-credentials", Eligible: true},
		{Name: "should allow expose headers", Header: "Access-Control-Expose-Headers", Eligible: true},
		{Name: "should allow ordinary headers", Header: "X-Custom", Eligible: true},
		{Name: "should reject allow methods", Header: "Access-Control-Allow-Methods", Eligible: false},
		{Name: "should reject allow headers", Header: "Access-Control-Allow-Headers", Eligible: false},
		{Name: "should reject max age", Header: "ACCESS-CONTROL-MAX-AGE", Eligible: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert.Equal(t, testCase.Eligible, IsEligibleOutsidePreflight(testCase.Header))
		})
	}
}
