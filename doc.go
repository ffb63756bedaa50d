// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package wsrvr declares and runs a web server made of API routes,
// static files and an optional index (or single page app) page.
//
// Resources are declared on a [Server] and compiled into routes every
// time the server starts:
//
//	s := wsrvr.New().Port(8080)
//
//	api, err := s.API().Get("/users/:id", middleware.HandlerFunc(getUser))
//	if err != nil {
//	    return err
//	}
//	api.Advanced().AllowedOrigins("*").ParseJSON(nil)
//
//	_, err = s.Static().Add("/assets", "./public")
//	if err != nil {
//	    return err
//	}
//
//	res, err := s.Start(ctx)
//
// # Request flow
//
// Every response starts out as a 404. API routes are matched first, each
// preceded by a synthesized preflight route when it declares CORS headers
// only meaningful to a preflight request. Then static files are matched
// and, lastly, the index page. When nothing handled the request the
// not found middlewares run and the response is always ended.
//
// # Lifecycle hooks
//
// Code can be run at fixed checkpoints while routes are being registered,
// see [Server.On] and [lifecycle.Checkpoint].
package wsrvr
