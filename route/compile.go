// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"github.com/z5labs/wsrvr/header"
	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/parser"
	"github.com/z5labs/wsrvr/resource"
)

// Compile returns the full middleware chain of api in execution order:
// the response headers, then the body parsers in declaration order and
// finally the caller supplied middleware.
func Compile(api *resource.API) ([]middleware.Middleware, error) {
	mws := api.Middleware()
	if !api.HasAdvanced() {
		return mws, nil
	}
	adv := api.Advanced()

	var hs []middleware.Header
	for _, h := range adv.Headers() {
		if header.IsEligibleOutsidePreflight(h.Name) {
			hs = append(hs, h)
		}
	}

	specs := adv.Parsers()
	chain := make([]middleware.Middleware, 0, 1+len(specs)+len(mws))
	if len(hs) > 0 {
		chain = append(chain, middleware.SetHeaders(hs))
	}
	for _, spec := range specs {
		mw, err := parser.Middleware(spec)
		if err != nil {
			return nil, err
		}
		chain = append(chain, mw)
	}
	return append(chain, mws...), nil
}
