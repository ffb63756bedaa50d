// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package conntrack keeps track of open connections so they can be
// force closed, and waited on, when a server stops.
package conntrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"

	"github.com/z5labs/wsrvr/pkg/noop"
	"github.com/z5labs/wsrvr/pkg/otelslog"
	"github.com/z5labs/wsrvr/pkg/slogfield"

	"golang.org/x/sync/errgroup"
)

// Option configures a [Tracker].
type Option func(*Tracker)

// LogHandler configures the underlying [slog.Handler] used for logging.
func LogHandler(h slog.Handler) Option {
	return func(t *Tracker) {
		t.log = otelslog.New(h)
	}
}

type entry struct {
	id   uint64
	conn net.Conn
	done chan struct{}
}

// Tracker assigns every tracked connection a unique id, starting at 1,
// which is never reused by the same Tracker.
type Tracker struct {
	log *slog.Logger

	mu     sync.Mutex
	nextID uint64
	conns  map[net.Conn]*entry
}

// New returns an empty [Tracker].
func New(opts ...Option) *Tracker {
	t := &Tracker{
		log:    otelslog.New(noop.LogHandler{}),
		conns:  make(map[net.Conn]*entry),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track starts tracking c and returns its id. Tracking an
// already tracked connection returns its existing id.
func (t *Tracker) Track(c net.Conn) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.conns[c]; ok {
		return e.id
	}
	e := &entry{
		id:   t.nextID,
		conn: c,
		done: make(chan struct{}),
	}
	t.nextID++
	t.conns[c] = e
	return e.id
}

// Forget stops tracking c and acknowledges its closure to a pending [Tracker.Drain].
// Forgetting an untracked connection does nothing.
func (t *Tracker) Forget(c net.Conn) {
	t.mu.Lock()
	e, ok := t.conns[c]
	if ok {
		delete(t.conns, c)
	}
	t.mu.Unlock()

	if ok {
		close(e.done)
	}
}

// Len returns the number of tracked connections.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// IDs returns the ids of every tracked connection in ascending order.
func (t *Tracker) IDs() []uint64 {
	t.mu.Lock()
	ids := make([]uint64, 0, len(t.conns))
	for _, e := range t.conns {
		ids = append(ids, e.id)
	}
	t.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// ConnState can be used as the [http.Server] ConnState hook. New connections
// are tracked while closed and hijacked ones are forgotten.
func (t *Tracker) ConnState(c net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		t.Track(c)
	case http.StateClosed, http.StateHijacked:
		t.Forget(c)
	}
}

// DrainError is returned when a connection fails to be closed.
type DrainError struct {
	ID    uint64
	Cause error
}

// Error implements the [builtin.error] interface.
func (e DrainError) Error() string {
	return fmt.Sprintf("failed to close connection %d: %s", e.ID, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DrainError) Unwrap() error {
	return e.Cause
}

// LeakError is returned when some connections did not acknowledge
// their closure before the drain was cancelled.
type LeakError struct {
	IDs   []uint64
	Cause error
}

// Error implements the [builtin.error] interface.
func (e LeakError) Error() string {
	return fmt.Sprintf("%d connection(s) did not close: %v: %s", len(e.IDs), e.IDs, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e LeakError) Unwrap() error {
	return e.Cause
}

// Drain closes every tracked connection concurrently and waits for each of
// them to be forgotten, which is how closure is acknowledged.
//
// Failing to close one connection does not stop the others from being
// closed. The first failure is returned as a [DrainError]. If ctx is done
// before every closure is acknowledged a [LeakError] is returned.
func (t *Tracker) Drain(ctx context.Context) error {
	t.mu.Lock()
	entries := make([]*entry, 0, len(t.conns))
	for _, e := range t.conns {
		entries = append(entries, e)
	}
	t.mu.Unlock()

	var (
		leakMu sync.Mutex
		leaked []uint64
	)
	var g errgroup.Group
	for _, e := range entries {
		g.Go(func() error {
			t.log.DebugContext(ctx, "closing connection", slogfield.Uint64("conn_id", e.id))

			err := e.conn.Close()
			if err != nil && !errors.Is(err, net.ErrClosed) {
				return DrainError{ID: e.id, Cause: err}
			}

			select {
			case <-e.done:
				return nil
			case <-ctx.Done():
				leakMu.Lock()
				leaked = append(leaked, e.id)
				leakMu.Unlock()
				return nil
			}
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}
	if len(leaked) > 0 {
		slices.Sort(leaked)
		return LeakError{IDs: leaked, Cause: ctx.Err()}
	}
	return nil
}
