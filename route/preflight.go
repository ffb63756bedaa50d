// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"net/http"

	"github.com/z5labs/wsrvr/header"
	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/resource"
)

// Preflight synthesizes the OPTIONS resource answering CORS preflight
// requests for api. It returns false when api declares no preflight headers.
func Preflight(api *resource.API) (*resource.API, bool) {
	if !api.HasAdvanced() {
		return nil, false
	}

	var hs []middleware.Header
	for _, h := range api.Advanced().Headers() {
		if header.IsPreflight(h.Name) {
			hs = append(hs, h)
		}
	}
	if len(hs) == 0 {
		return nil, false
	}

	pf, err := resource.NewAPI(
		[]string{string(resource.MethodOptions)},
		api.Route(),
		middleware.SetHeaders(hs),
		middleware.SetStatus(http.StatusOK),
	)
	if err != nil {
		// api.Route() was already validated
		return nil, false
	}
	return pf, true
}

// Expand returns a new list with every synthesized preflight resource
// placed right before the resource it was derived from.
func Expand(apis []*resource.API) []*resource.API {
	expanded := make([]*resource.API, 0, len(apis))
	for _, api := range apis {
		if pf, ok := Preflight(api); ok {
			expanded = append(expanded, pf)
		}
		expanded = append(expanded, api)
	}
	return expanded
}
