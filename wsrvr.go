// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wsrvr

import (
	"context"
	"log/slog"
	"maps"
	"net"
	"net/url"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/z5labs/wsrvr/lifecycle"
	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/pkg/ptr"
	"github.com/z5labs/wsrvr/server"
)

// Credentials are the in memory TLS credentials, see [server.Credentials].
type Credentials = server.Credentials

// CredentialFiles point to the files holding the TLS credentials.
type CredentialFiles struct {
	Cert       string `config:"cert"`
	Key        string `config:"key"`
	PFX        string `config:"pfx"`
	Passphrase string `config:"passphrase"`
}

// Option configures a [Server].
type Option func(*options)

type options struct {
	manager     []server.Option
	stopTimeout time.Duration
}

// WithLogHandler configures the underlying [slog.Handler] used for logging.
func WithLogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.manager = append(o.manager, server.LogHandler(h))
	}
}

// WithListen overrides how the listener is created.
func WithListen(f func(network, addr string) (net.Listener, error)) Option {
	return func(o *options) {
		o.manager = append(o.manager, server.Listen(f))
	}
}

// WithReadHeaderTimeout sets the amount of time allowed to read request headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(o *options) {
		o.manager = append(o.manager, server.ReadHeaderTimeout(d))
	}
}

// WithIdleTimeout sets how long keep-alive connections may sit idle.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.manager = append(o.manager, server.IdleTimeout(d))
	}
}

// WithStopTimeout bounds how long [Run] waits for open connections
// to close. Default is 30 seconds.
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) {
		o.stopTimeout = d
	}
}

// Server collects everything describing a web server and manages
// its lifecycle.
//
// Declarations are append only and only take effect the next time
// the server is started.
type Server struct {
	manager     *server.Manager
	stopTimeout time.Duration
	hooks       lifecycle.Hooks
	api         *APIConfigurator
	static      *StaticConfigurator

	mu       sync.Mutex
	port     *int
	secure   *Credentials
	locals   map[string]any
	notFound []middleware.Middleware
}

// New returns a [Server] with nothing declared.
func New(opts ...Option) *Server {
	o := &options{
		stopTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Server{
		manager:     server.New(o.manager...),
		stopTimeout: o.stopTimeout,
		api:         &APIConfigurator{},
		static:      &StaticConfigurator{},
	}
}

// Port sets the port to listen on. It defaults to 80, or 443 when
// serving HTTPS. Zero picks an ephemeral port.
func (s *Server) Port(port int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = ptr.Ref(port)
	return s
}

// HTTPS serves over TLS using creds.
func (s *Server) HTTPS(creds Credentials) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secure = &creds
	return s
}

// HTTPSFiles serves over TLS using the credentials read from files.
// Empty paths are skipped.
func (s *Server) HTTPSFiles(files CredentialFiles) error {
	creds := Credentials{Passphrase: files.Passphrase}
	reads := []struct {
		path string
		dst  *[]byte
	}{
		{path: files.Cert, dst: &creds.Cert},
		{path: files.Key, dst: &creds.Key},
		{path: files.PFX, dst: &creds.PFX},
	}
	for _, r := range reads {
		if r.path == "" {
			continue
		}
		b, err := os.ReadFile(r.path)
		if err != nil {
			return err
		}
		*r.dst = b
	}

	s.HTTPS(creds)
	return nil
}

// NotFound appends middlewares which run when no route handled a request.
// The response is ended after them, even if they left it open.
func (s *Server) NotFound(mws ...middleware.Middleware) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mw := range mws {
		if mw == nil {
			continue
		}
		s.notFound = append(s.notFound, mw)
	}
	return s
}

// Locals merges locals into the values made available to every request.
func (s *Server) Locals(locals map[string]any) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locals == nil {
		s.locals = make(map[string]any, len(locals))
	}
	maps.Copy(s.locals, locals)
	return s
}

// On registers hooks to run at the given checkpoint.
func (s *Server) On(cp lifecycle.Checkpoint, hooks ...lifecycle.Hook) *Server {
	s.hooks.On(cp, hooks...)
	return s
}

// API returns the configurator for API routes.
func (s *Server) API() *APIConfigurator {
	return s.api
}

// Static returns the configurator for static files and the index page.
func (s *Server) Static() *StaticConfigurator {
	return s.static
}

// Start compiles every declared resource into routes and starts serving
// them. See [server.Manager.Start].
func (s *Server) Start(ctx context.Context) (server.Result, error) {
	return s.manager.Start(ctx, s.settings())
}

// Stop stops serving and closes every open connection.
// See [server.Manager.Stop].
func (s *Server) Stop(ctx context.Context) error {
	return s.manager.Stop(ctx)
}

// Address returns the address of the running server or nil.
func (s *Server) Address() *url.URL {
	return s.manager.Address()
}

func (s *Server) settings() *server.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := &server.Settings{
		Locals:   maps.Clone(s.locals),
		NotFound: slices.Clone(s.notFound),
		Index:    s.static.IndexConfig(),
		Static:   s.static.Resources(),
		API:      s.api.Resources(),
		Hooks:    &s.hooks,
	}
	if s.port != nil {
		settings.Port = ptr.Ref(*s.port)
	}
	if s.secure != nil {
		creds := *s.secure
		settings.Secure = &creds
	}
	return settings
}
