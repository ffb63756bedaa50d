// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server binds compiled routes to a listener and manages the
// start and stop lifecycle of the resulting HTTP server.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/z5labs/wsrvr/conntrack"
	"github.com/z5labs/wsrvr/lifecycle"
	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/pkg/noop"
	"github.com/z5labs/wsrvr/pkg/otelslog"
	"github.com/z5labs/wsrvr/pkg/slogfield"
	"github.com/z5labs/wsrvr/resource"
	"github.com/z5labs/wsrvr/route"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultPort       = 80
	DefaultSecurePort = 443
)

// Settings describe the server started by [Manager.Start].
type Settings struct {
	// Port defaults to DefaultPort, or DefaultSecurePort when
	// Secure is set. Zero picks an ephemeral port.
	Port   *int
	Secure *Credentials

	// Locals are made available to every request, see [route.Locals].
	// The resolved port is always present under "port" unless
	// overridden here.
	Locals   map[string]any
	NotFound []middleware.Middleware
	Index    resource.Index
	Static   []resource.Static
	API      []*resource.API
	Hooks    *lifecycle.Hooks
}

// Result describes a started server.
type Result struct {
	Server   *http.Server
	Listener net.Listener
	Address  *url.URL
}

// Option configures a [Manager].
type Option func(*Manager)

// LogHandler configures the underlying [slog.Handler] used for logging.
func LogHandler(h slog.Handler) Option {
	return func(m *Manager) {
		m.logHandler = h
	}
}

// Listen overrides how the listener is created. Default is [net.Listen].
func Listen(f func(network, addr string) (net.Listener, error)) Option {
	return func(m *Manager) {
		m.listen = f
	}
}

// ReadHeaderTimeout sets [http.Server.ReadHeaderTimeout].
func ReadHeaderTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.readHeaderTimeout = d
	}
}

// IdleTimeout sets [http.Server.IdleTimeout].
func IdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idleTimeout = d
	}
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newCall[T any]() *call[T] {
	return &call[T]{done: make(chan struct{})}
}

func (c *call[T]) settle(v T, err error) {
	c.val = v
	c.err = err
	close(c.done)
}

func (c *call[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type instance struct {
	srv       *http.Server
	ln        net.Listener
	tracker   *conntrack.Tracker
	addr      *url.URL
	serveDone chan struct{}
}

// Manager runs at most one server at a time.
//
// Start and Stop are single flight. Calling Start while a start is in
// flight, or after one completed, returns the same [Result] until Stop
// is called. Calling Stop while a stop is in flight waits for it.
type Manager struct {
	logHandler        slog.Handler
	log               *slog.Logger
	listen            func(network, addr string) (net.Listener, error)
	readHeaderTimeout time.Duration
	idleTimeout       time.Duration

	mu       sync.Mutex
	starting *call[Result]
	stopping *call[struct{}]
	current  *instance
}

// New returns an idle [Manager].
func New(opts ...Option) *Manager {
	m := &Manager{
		logHandler:        noop.LogHandler{},
		listen:            net.Listen,
		readHeaderTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = otelslog.New(m.logHandler)
	return m
}

// Address returns the address of the running server or nil
// if no server is running.
func (m *Manager) Address() *url.URL {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	addr := *m.current.addr
	return &addr
}

// Start binds the routes described by s and starts serving them.
//
// A failed start leaves nothing behind, every partially created
// resource is released before the error is returned, and Start may
// be called again.
func (m *Manager) Start(ctx context.Context, s *Settings) (Result, error) {
	m.mu.Lock()
	for m.stopping != nil {
		stop := m.stopping
		m.mu.Unlock()
		select {
		case <-stop.done:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		m.mu.Lock()
	}
	if c := m.starting; c != nil {
		m.mu.Unlock()
		return c.wait(ctx)
	}
	c := newCall[Result]()
	m.starting = c
	m.mu.Unlock()

	res, err := m.start(ctx, s)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to start server", slogfield.Error(err))

		serr := m.shutdown(ctx)
		if serr != nil {
			m.log.ErrorContext(ctx, "failed to release partially started server", slogfield.Error(serr))
		}

		m.mu.Lock()
		if m.starting == c {
			m.starting = nil
		}
		m.mu.Unlock()

		c.settle(Result{}, err)
		return Result{}, err
	}

	c.settle(res, nil)
	return res, nil
}

func (m *Manager) start(ctx context.Context, s *Settings) (Result, error) {
	if s == nil {
		return Result{}, ConfigurationError{Cause: ErrMissingSettings}
	}

	port, err := resolvePort(s)
	if err != nil {
		return Result{}, err
	}

	var tlsCfg *tls.Config
	if s.Secure != nil {
		tlsCfg, err = TLSConfig(*s.Secure)
		if err != nil {
			return Result{}, err
		}
	}

	locals := map[string]any{"port": port}
	maps.Copy(locals, s.Locals)

	h, err := route.Bind(ctx, route.Plan{
		API:      s.API,
		Static:   s.Static,
		Index:    s.Index,
		NotFound: s.NotFound,
		Locals:   locals,
		Hooks:    s.Hooks,
	})
	if err != nil {
		var herr route.HookError
		if errors.As(err, &herr) {
			return Result{}, err
		}
		return Result{}, ConfigurationError{Cause: err}
	}

	addr := net.JoinHostPort("", strconv.Itoa(port))
	ln, err := m.listen("tcp", addr)
	if err != nil {
		return Result{}, BindError{Addr: addr, Cause: err}
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}

	tracker := conntrack.New(conntrack.LogHandler(m.logHandler))
	srv := &http.Server{
		Handler:           otelhttp.NewHandler(h, "wsrvr"),
		TLSConfig:         tlsCfg,
		ConnState:         tracker.ConnState,
		ReadHeaderTimeout: m.readHeaderTimeout,
		IdleTimeout:       m.idleTimeout,
		ErrorLog:          slog.NewLogLogger(m.logHandler, slog.LevelError),
	}

	inst := &instance{
		srv:       srv,
		ln:        ln,
		tracker:   tracker,
		addr:      Address(ln.Addr(), tlsCfg != nil),
		serveDone: make(chan struct{}),
	}
	m.mu.Lock()
	m.current = inst
	m.mu.Unlock()

	go m.serve(inst)

	m.log.InfoContext(ctx, "started server", slogfield.String("address", inst.addr.String()))

	addrCopy := *inst.addr
	res := Result{
		Server:   srv,
		Listener: ln,
		Address:  &addrCopy,
	}
	return res, nil
}

func (m *Manager) serve(inst *instance) {
	defer close(inst.serveDone)

	err := inst.srv.Serve(inst.ln)
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	m.log.Error("server stopped accepting connections", slogfield.Error(err))
}

func resolvePort(s *Settings) (int, error) {
	if s.Port == nil {
		if s.Secure != nil {
			return DefaultSecurePort, nil
		}
		return DefaultPort, nil
	}
	port := *s.Port
	if port < 0 || port > 65535 {
		return 0, ConfigurationError{Cause: ErrInvalidPort}
	}
	return port, nil
}

// Stop stops the running server. It stops accepting connections, closes
// every open connection and waits for each of them to acknowledge it.
//
// Stop waits for an in-flight start to settle first. Stopping an idle
// [Manager] does nothing. If ctx is done before every connection was
// closed a [LeakError] is returned, a failure to close one is returned
// as a [DrainError]. Either way the server is released.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if c := m.stopping; c != nil {
		m.mu.Unlock()
		_, err := c.wait(ctx)
		return err
	}
	c := newCall[struct{}]()
	m.stopping = c
	start := m.starting
	m.mu.Unlock()

	err := m.awaitThenShutdown(ctx, start)

	m.mu.Lock()
	if start != nil && m.starting == start {
		m.starting = nil
	}
	m.stopping = nil
	m.mu.Unlock()

	c.settle(struct{}{}, err)
	return err
}

func (m *Manager) awaitThenShutdown(ctx context.Context, start *call[Result]) error {
	if start != nil {
		select {
		case <-start.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.shutdown(ctx)
}

func (m *Manager) shutdown(ctx context.Context) error {
	m.mu.Lock()
	inst := m.current
	m.mu.Unlock()
	if inst == nil {
		return nil
	}

	began := time.Now()
	m.log.InfoContext(
		ctx,
		"stopping server",
		slogfield.String("address", inst.addr.String()),
		slogfield.Int("open_connections", inst.tracker.Len()),
	)

	err := inst.ln.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		m.log.WarnContext(ctx, "failed to close listener", slogfield.Error(err))
	}

	// every accepted connection is tracked once the accept loop returned
	select {
	case <-inst.serveDone:
	case <-ctx.Done():
	}

	drainErr := inst.tracker.Drain(ctx)
	var leakErr LeakError
	switch {
	case drainErr == nil:
	case errors.As(drainErr, &leakErr):
		m.log.ErrorContext(ctx, "connections did not close in time", slogfield.Uint64s("conn_ids", leakErr.IDs))
	default:
		m.log.ErrorContext(ctx, "failed to drain connections", slogfield.Error(drainErr))
	}

	err = inst.srv.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		m.log.WarnContext(ctx, "failed to close server", slogfield.Error(err))
	}

	m.mu.Lock()
	if m.current == inst {
		m.current = nil
	}
	m.mu.Unlock()

	m.log.InfoContext(ctx, "stopped server", slogfield.Duration("took", time.Since(began)))
	return drainErr
}

// Address formats addr as the URL clients use to reach the server.
// An unspecified host is reported as localhost.
func Address(addr net.Addr, secure bool) *url.URL {
	scheme := "http"
	if secure {
		scheme = "https"
	}

	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}

	return &url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   "/",
	}
}
