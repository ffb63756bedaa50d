// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wsrvr

import (
	"net/http"
	"slices"
	"sync"

	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/resource"
)

// APIConfigurator declares API routes. Routes are matched in the order
// they are declared.
type APIConfigurator struct {
	mu        sync.Mutex
	resources []*resource.API
}

// Add declares a route handling every one of methods. A method entry
// may hold several comma separated methods. The returned [resource.API]
// can be refined further through [resource.API.Advanced].
func (c *APIConfigurator) Add(methods []string, route string, mws ...middleware.Middleware) (*resource.API, error) {
	api, err := resource.NewAPI(methods, route, mws...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, api)
	return api, nil
}

func (c *APIConfigurator) add(method, route string, mws []middleware.Middleware) (*resource.API, error) {
	return c.Add([]string{method}, route, mws...)
}

// Get declares a GET route.
func (c *APIConfigurator) Get(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodGet, route, mws)
}

// Post declares a POST route.
func (c *APIConfigurator) Post(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodPost, route, mws)
}

// Put declares a PUT route.
func (c *APIConfigurator) Put(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodPut, route, mws)
}

// Delete declares a DELETE route.
func (c *APIConfigurator) Delete(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodDelete, route, mws)
}

// Head declares a HEAD route.
func (c *APIConfigurator) Head(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodHead, route, mws)
}

// Patch declares a PATCH route.
func (c *APIConfigurator) Patch(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodPatch, route, mws)
}

// Options declares an OPTIONS route. Synthesized preflight routes
// are matched before it.
func (c *APIConfigurator) Options(route string, mws ...middleware.Middleware) (*resource.API, error) {
	return c.add(http.MethodOptions, route, mws)
}

// Resources returns the declared routes in declaration order.
func (c *APIConfigurator) Resources() []*resource.API {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.resources)
}
