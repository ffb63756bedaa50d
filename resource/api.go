// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource defines the declarations a server is compiled from.
package resource

import (
	"strings"

	"github.com/z5labs/wsrvr/middleware"
)

// API is a dynamic route: one or more methods bound to a route and a
// middleware chain, plus optional [Advanced] settings.
type API struct {
	methods    []Method
	route      string
	middleware []middleware.Middleware
	advanced   *Advanced
}

// NewAPI validates and creates a new [API] resource. Each entry of methods
// may be a comma separated list. Nil middlewares are dropped.
func NewAPI(methods []string, route string, mws ...middleware.Middleware) (*API, error) {
	ms, err := ParseMethods(methods...)
	if err != nil {
		return nil, err
	}
	err = validateRoute(route)
	if err != nil {
		return nil, err
	}

	api := &API{
		methods:    ms,
		route:      route,
		middleware: make([]middleware.Middleware, 0, len(mws)),
	}
	for _, mw := range mws {
		if mw == nil {
			continue
		}
		api.middleware = append(api.middleware, mw)
	}
	return api, nil
}

// Methods returns a copy of the methods this resource is bound to.
func (api *API) Methods() []Method {
	ms := make([]Method, len(api.methods))
	copy(ms, api.methods)
	return ms
}

// Route returns the route pattern.
func (api *API) Route() string {
	return api.route
}

// Middleware returns a copy of the caller supplied middleware chain.
func (api *API) Middleware() []middleware.Middleware {
	mws := make([]middleware.Middleware, len(api.middleware))
	copy(mws, api.middleware)
	return mws
}

// Advanced returns the advanced settings of this resource, creating them on first use.
func (api *API) Advanced() *Advanced {
	if api.advanced == nil {
		api.advanced = &Advanced{}
	}
	return api.advanced
}

// HasAdvanced reports whether advanced settings were ever requested.
func (api *API) HasAdvanced() bool {
	return api.advanced != nil
}

func validateRoute(route string) error {
	if strings.HasPrefix(route, "/") {
		return nil
	}
	return ValidationError{
		Field: "route",
		Value: route,
		Cause: ErrInvalidRoute,
	}
}
