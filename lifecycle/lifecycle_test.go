// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package lifecycle

import (
	"context"
	"testing"

	"github.com/z5labs/wsrvr/internal/try"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestCheckpoint_String(t *testing.T) {
	expected := []string{
		"before-setup",
		"before-api-setup",
		"after-api-setup",
		"before-static-setup",
		"after-static-setup",
		"after-setup",
	}

	var names []string
	for _, cp := range Checkpoints() {
		names = append(names, cp.String())
	}
	assert.Equal(t, expected, names)
	assert.Equal(t, "checkpoint(42)", Checkpoint(42).String())
}

func TestCheckpoint_UnmarshalText(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the checkpoint name is unknown", func(t *testing.T) {
			var cp Checkpoint
			err := cp.UnmarshalText([]byte("during-setup"))
			if !assert.ErrorIs(t, err, ErrUnknownCheckpoint) {
				return
			}
		})
	})

	t.Run("will parse a known checkpoint name", func(t *testing.T) {
		var cp Checkpoint
		err := cp.UnmarshalText([]byte("after-static-setup"))
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, AfterStaticSetup, cp) {
			return
		}
	})
}

func TestHooks_Run(t *testing.T) {
	t.Run("will return a PanicError", func(t *testing.T) {
		t.Run("if a hook panics", func(t *testing.T) {
			var hooks Hooks
			ran := false
			hooks.On(BeforeAPISetup,
				HookFunc(func(ctx context.Context, r *mux.Router) error {
					panic("boom")
				}),
				HookFunc(func(ctx context.Context, r *mux.Router) error {
					ran = true
					return nil
				}),
			)

			err := hooks.Run(context.Background(), BeforeAPISetup, mux.NewRouter())

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.True(t, ran) {
				return
			}
		})
	})

	t.Run("will only run hooks registered at the given checkpoint", func(t *testing.T) {
		var hooks Hooks
		var order []Checkpoint
		for _, cp := range Checkpoints() {
			cp := cp
			hooks.On(cp, HookFunc(func(ctx context.Context, r *mux.Router) error {
				order = append(order, cp)
				return nil
			}))
		}

		err := hooks.Run(context.Background(), AfterAPISetup, mux.NewRouter())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, []Checkpoint{AfterAPISetup}, order) {
			return
		}
	})

	t.Run("will pass the router to every hook", func(t *testing.T) {
		var hooks Hooks
		hooks.On(AfterSetup, HookFunc(func(ctx context.Context, r *mux.Router) error {
			r.Path("/hooked")
			return nil
		}))

		router := mux.NewRouter()
		err := hooks.Run(context.Background(), AfterSetup, router)
		if !assert.Nil(t, err) {
			return
		}

		count := 0
		err = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
			count++
			return nil
		})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 1, count) {
			return
		}
	})

	t.Run("will do nothing", func(t *testing.T) {
		t.Run("if the hooks are nil", func(t *testing.T) {
			var hooks *Hooks
			err := hooks.Run(context.Background(), BeforeSetup, mux.NewRouter())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 0, hooks.Len(BeforeSetup)) {
				return
			}
		})

		t.Run("if the checkpoint is unknown", func(t *testing.T) {
			var hooks Hooks
			hooks.On(Checkpoint(-1), HookFunc(func(ctx context.Context, r *mux.Router) error {
				return nil
			}))
			if !assert.Equal(t, 0, hooks.Len(Checkpoint(-1))) {
				return
			}
		})
	})
}
