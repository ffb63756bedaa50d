// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package conntrack

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	net.Conn

	closed    atomic.Bool
	closeFunc func() error
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	if c.closeFunc == nil {
		return nil
	}
	return c.closeFunc()
}

func TestTracker_Track(t *testing.T) {
	t.Run("will assign increasing ids starting at 1", func(t *testing.T) {
		tr := New()

		a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
		if !assert.Equal(t, uint64(1), tr.Track(a)) {
			return
		}
		if !assert.Equal(t, uint64(2), tr.Track(b)) {
			return
		}
		if !assert.Equal(t, uint64(3), tr.Track(c)) {
			return
		}
		if !assert.Equal(t, []uint64{1, 2, 3}, tr.IDs()) {
			return
		}
	})

	t.Run("will return the existing id", func(t *testing.T) {
		t.Run("if the connection is already tracked", func(t *testing.T) {
			tr := New()

			c := &fakeConn{}
			id := tr.Track(c)
			if !assert.Equal(t, id, tr.Track(c)) {
				return
			}
			if !assert.Equal(t, 1, tr.Len()) {
				return
			}
		})
	})

	t.Run("will never reuse an id", func(t *testing.T) {
		tr := New()

		c := &fakeConn{}
		first := tr.Track(c)
		tr.Forget(c)
		second := tr.Track(c)
		if !assert.NotEqual(t, first, second) {
			return
		}
	})

	t.Run("will be safe for concurrent use", func(t *testing.T) {
		tr := New()

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				c := &fakeConn{}
				tr.Track(c)
				tr.IDs()
				tr.Forget(c)
			}()
		}
		wg.Wait()

		if !assert.Equal(t, 0, tr.Len()) {
			return
		}
		if !assert.Equal(t, uint64(51), tr.Track(&fakeConn{})) {
			return
		}
	})
}

func TestTracker_ConnState(t *testing.T) {
	testCases := []struct {
		Name    string
		State   http.ConnState
		Tracked bool
	}{
		{Name: "active connections stay tracked", State: http.StateActive, Tracked: true},
		{Name: "idle connections stay tracked", State: http.StateIdle, Tracked: true},
		{Name: "closed connections are forgotten", State: http.StateClosed, Tracked: false},
		{Name: "hijacked connections are forgotten", State: http.StateHijacked, Tracked: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			tr := New()

			c := &fakeConn{}
			tr.ConnState(c, http.StateNew)
			tr.ConnState(c, testCase.State)

			if !assert.Equal(t, testCase.Tracked, tr.Len() == 1) {
				return
			}
		})
	}
}

func TestTracker_Drain(t *testing.T) {
	t.Run("will return nil", func(t *testing.T) {
		t.Run("if there are no tracked connections", func(t *testing.T) {
			tr := New()

			err := tr.Drain(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})

		t.Run("if every connection acknowledges its closure", func(t *testing.T) {
			tr := New()

			conns := make([]*fakeConn, 5)
			for i := range conns {
				c := &fakeConn{}
				c.closeFunc = func() error {
					go func() {
						time.Sleep(10 * time.Millisecond)
						tr.Forget(c)
					}()
					return nil
				}
				conns[i] = c
				tr.Track(c)
			}

			err := tr.Drain(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 0, tr.Len()) {
				return
			}
			for _, c := range conns {
				if !assert.True(t, c.closed.Load()) {
					return
				}
			}
		})

		t.Run("if a connection was already closed", func(t *testing.T) {
			tr := New()

			c := &fakeConn{}
			c.closeFunc = func() error {
				tr.Forget(c)
				return net.ErrClosed
			}
			tr.Track(c)

			err := tr.Drain(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})
	})

	t.Run("will return a DrainError", func(t *testing.T) {
		t.Run("if a connection fails to close", func(t *testing.T) {
			tr := New()

			closeErr := errors.New("failed to close")
			bad := &fakeConn{closeFunc: func() error { return closeErr }}
			good := &fakeConn{}
			good.closeFunc = func() error {
				tr.Forget(good)
				return nil
			}
			badID := tr.Track(bad)
			tr.Track(good)

			err := tr.Drain(context.Background())

			var derr DrainError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
			if !assert.Equal(t, badID, derr.ID) {
				return
			}
			if !assert.ErrorIs(t, err, closeErr) {
				return
			}
			if !assert.True(t, good.closed.Load()) {
				return
			}
		})
	})

	t.Run("will return a LeakError", func(t *testing.T) {
		t.Run("if the context is done before every closure is acknowledged", func(t *testing.T) {
			tr := New()

			stuck := &fakeConn{}
			acked := &fakeConn{}
			acked.closeFunc = func() error {
				tr.Forget(acked)
				return nil
			}
			stuckID := tr.Track(stuck)
			tr.Track(acked)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			err := tr.Drain(ctx)

			var lerr LeakError
			if !assert.ErrorAs(t, err, &lerr) {
				return
			}
			if !assert.Equal(t, []uint64{stuckID}, lerr.IDs) {
				return
			}
			if !assert.ErrorIs(t, err, context.DeadlineExceeded) {
				return
			}
			if !assert.Equal(t, []uint64{stuckID}, tr.IDs()) {
				return
			}
		})
	})
}
