// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle provides hooks for customizing the router at fixed
// checkpoints while a server is being set up.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/z5labs/wsrvr/internal/try"

	"github.com/gorilla/mux"
)

// Checkpoint is a named point during server setup.
type Checkpoint int

const (
	// BeforeSetup runs before anything is registered on the router.
	BeforeSetup Checkpoint = iota

	// BeforeAPISetup runs right before the API routes are registered.
	BeforeAPISetup

	// AfterAPISetup runs right after the API routes are registered.
	AfterAPISetup

	// BeforeStaticSetup runs right before static files and the index page are registered.
	BeforeStaticSetup

	// AfterStaticSetup runs right after static files and the index page are registered.
	AfterStaticSetup

	// AfterSetup runs once every route and fallback is in place, before listening.
	AfterSetup

	numCheckpoints
)

var checkpointNames = [numCheckpoints]string{
	"before-setup",
	"before-api-setup",
	"after-api-setup",
	"before-static-setup",
	"after-static-setup",
	"after-setup",
}

// Checkpoints returns every [Checkpoint] in the order they're reached.
func Checkpoints() []Checkpoint {
	cps := make([]Checkpoint, numCheckpoints)
	for i := range cps {
		cps[i] = Checkpoint(i)
	}
	return cps
}

// String implements the [fmt.Stringer] interface.
func (c Checkpoint) String() string {
	if c < 0 || c >= numCheckpoints {
		return fmt.Sprintf("checkpoint(%d)", int(c))
	}
	return checkpointNames[c]
}

// ErrUnknownCheckpoint is returned when parsing an unknown checkpoint name.
var ErrUnknownCheckpoint = errors.New("unknown checkpoint")

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (c *Checkpoint) UnmarshalText(b []byte) error {
	for i, name := range checkpointNames {
		if name == string(b) {
			*c = Checkpoint(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCheckpoint, string(b))
}

// Hook represents functionality that needs to be performed
// at a specific [Checkpoint] of the server setup.
type Hook interface {
	Run(context.Context, *mux.Router) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context, *mux.Router) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context, router *mux.Router) error {
	return f(ctx, router)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context, router *mux.Router) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := runHook(ctx, h, router)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func runHook(ctx context.Context, h Hook, router *mux.Router) (err error) {
	defer try.Recover(&err)
	return h.Run(ctx, router)
}

// MultiHook returns a [Hook] that's the logical concatenation
// of the provided [Hook]s. They're applied sequentially and
// every hook runs even if an earlier one fails.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Hooks holds one ordered slot of hooks per [Checkpoint].
// The zero value is ready to use.
type Hooks struct {
	mu    sync.Mutex
	slots [numCheckpoints]multiHook
}

// On registers hooks to run at the given checkpoint. Nil hooks are dropped.
func (h *Hooks) On(cp Checkpoint, hooks ...Hook) {
	if cp < 0 || cp >= numCheckpoints {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		h.slots[cp] = append(h.slots[cp], hook)
	}
}

// Len returns the number of hooks registered at the given checkpoint.
func (h *Hooks) Len(cp Checkpoint) int {
	if h == nil || cp < 0 || cp >= numCheckpoints {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.slots[cp])
}

// Run runs every hook registered at the given checkpoint, in registration order.
func (h *Hooks) Run(ctx context.Context, cp Checkpoint, router *mux.Router) error {
	if h == nil || cp < 0 || cp >= numCheckpoints {
		return nil
	}

	h.mu.Lock()
	slot := make(multiHook, len(h.slots[cp]))
	copy(slot, h.slots[cp])
	h.mu.Unlock()

	return slot.Run(ctx, router)
}
