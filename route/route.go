// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package route compiles resources into an [http.Handler] backed by a
// [mux.Router].
//
// Routes are registered in a fixed order: API routes (each preceded by
// its synthesized preflight route), static mounts and then the index page.
// The first registered route matching a request handles it. Every request
// starts with a pending 404 status. When no route handles a request,
// or a route hands it on, the not found middlewares get a chance to
// respond before the response is ended.
package route

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/z5labs/wsrvr/lifecycle"
	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/resource"
	"github.com/z5labs/wsrvr/response"
	"github.com/z5labs/wsrvr/static"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Plan is everything needed to build the request handler of a server.
type Plan struct {
	API      []*resource.API
	Static   []resource.Static
	Index    resource.Index
	NotFound []middleware.Middleware
	Locals   map[string]any
	Hooks    *lifecycle.Hooks
}

// HookError is returned when a hook fails while binding.
type HookError struct {
	Checkpoint lifecycle.Checkpoint
	Cause      error
}

// Error implements the [builtin.error] interface.
func (e HookError) Error() string {
	return fmt.Sprintf("%s hook failed: %s", e.Checkpoint, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e HookError) Unwrap() error {
	return e.Cause
}

// RouteError is returned when a route can not be registered on the router.
type RouteError struct {
	Route string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RouteError) Error() string {
	return fmt.Sprintf("failed to register route %s: %s", e.Route, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RouteError) Unwrap() error {
	return e.Cause
}

type localsCtxKey struct{}

// Locals returns a copy of the server locals available to a request.
func Locals(ctx context.Context) map[string]any {
	locals, _ := ctx.Value(localsCtxKey{}).(map[string]any)
	return maps.Clone(locals)
}

// Local returns a single server local.
func Local(ctx context.Context, name string) (any, bool) {
	locals, _ := ctx.Value(localsCtxKey{}).(map[string]any)
	v, ok := locals[name]
	return v, ok
}

type binder struct {
	plan    Plan
	router  *mux.Router
	closing http.Handler
}

// Bind registers everything in plan on a new router, running the
// lifecycle hooks at each checkpoint, and returns the root handler.
func Bind(ctx context.Context, plan Plan) (http.Handler, error) {
	b := &binder{
		plan:    plan,
		router:  mux.NewRouter().SkipClean(true),
		closing: closingHandler(plan.NotFound),
	}

	// each phase binds right after its checkpoint hooks ran
	phases := []struct {
		checkpoint lifecycle.Checkpoint
		bind       func() error
	}{
		{checkpoint: lifecycle.BeforeSetup},
		{checkpoint: lifecycle.BeforeAPISetup, bind: b.bindAPI},
		{checkpoint: lifecycle.AfterAPISetup},
		{checkpoint: lifecycle.BeforeStaticSetup, bind: b.bindStatic},
		{checkpoint: lifecycle.AfterStaticSetup, bind: b.bindFallback},
		{checkpoint: lifecycle.AfterSetup},
	}
	for _, phase := range phases {
		err := plan.Hooks.Run(ctx, phase.checkpoint, b.router)
		if err != nil {
			return nil, HookError{Checkpoint: phase.checkpoint, Cause: err}
		}
		if phase.bind == nil {
			continue
		}
		err = phase.bind()
		if err != nil {
			return nil, err
		}
	}

	locals := maps.Clone(plan.Locals)
	if locals == nil {
		locals = make(map[string]any)
	}
	router := b.router
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := response.Wrap(w)
		defer rw.End()

		ctx := context.WithValue(r.Context(), localsCtxKey{}, locals)
		router.ServeHTTP(rw, r.WithContext(ctx))
	})
	return h, nil
}

func (b *binder) bindAPI() error {
	for _, api := range Expand(b.plan.API) {
		mws, err := Compile(api)
		if err != nil {
			return err
		}

		h := otelhttp.WithRouteTag(api.Route(), middleware.Chain(mws).Then(b.closing))
		for _, m := range boundMethods(api.Methods()) {
			r := b.router.Methods(string(m)).Path(muxTemplate(api.Route())).Handler(h)
			if err := r.GetError(); err != nil {
				return RouteError{Route: api.Route(), Cause: err}
			}
		}
	}
	return nil
}

// boundMethods answers HEAD on GET routes unless HEAD is declared too.
func boundMethods(ms []resource.Method) []resource.Method {
	if !slices.Contains(ms, resource.MethodGet) || slices.Contains(ms, resource.MethodHead) {
		return ms
	}
	return append(slices.Clone(ms), resource.MethodHead)
}

func (b *binder) bindStatic() error {
	for _, res := range b.plan.Static {
		m := static.NewMount(res, b.closing)
		b.router.MatcherFunc(m.Match).Handler(otelhttp.WithRouteTag(res.Route, m))
	}

	if !b.plan.Index.IsSet() {
		return nil
	}
	idx := static.NewIndex(b.plan.Index, b.closing)
	r := b.router.MatcherFunc(idx.Match)
	if b.plan.Index.RootOnly {
		r.Path("/")
	} else {
		r.PathPrefix("/")
	}
	r.Handler(otelhttp.WithRouteTag("/", idx))
	return nil
}

func (b *binder) bindFallback() error {
	b.router.NotFoundHandler = b.closing
	b.router.MethodNotAllowedHandler = b.closing
	return nil
}

// closingHandler ends responses something already handled and otherwise
// runs the not found middlewares before ending the response.
func closingHandler(notFound []middleware.Middleware) http.Handler {
	end := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.End(w)
	})
	fallback := middleware.Chain(notFound).Then(end)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if response.Status(w) != http.StatusNotFound {
			response.End(w)
			return
		}
		fallback.ServeHTTP(w, r)
	})
}

// muxTemplate converts ":name" path segments into mux "{name}" variables.
func muxTemplate(route string) string {
	segs := strings.Split(route, "/")
	for i, seg := range segs {
		if len(seg) > 1 && seg[0] == ':' {
			segs[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
