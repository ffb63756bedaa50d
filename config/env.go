// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"

	"github.com/z5labs/wsrvr/config/key"
)

// EnvOption configures an [Env] source.
type EnvOption func(*Env)

// EnvPrefix only applies variables starting with prefix. The prefix is
// removed from the resulting key.
func EnvPrefix(prefix string) EnvOption {
	return func(e *Env) {
		e.prefix = prefix
	}
}

// EnvSeparator sets the string used to nest keys. Defaults to "__" so
// WSRVR_HTTPS__CERT maps to https.cert.
func EnvSeparator(sep string) EnvOption {
	return func(e *Env) {
		e.sep = sep
	}
}

// Environ overrides where the environment variables are read from.
func Environ(f func() []string) EnvOption {
	return func(e *Env) {
		e.environ = f
	}
}

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	environ func() []string
	prefix  string
	sep     string
}

// FromEnv returns a Source which will apply its config
// from the environment variables available to the
// current process.
func FromEnv(opts ...EnvOption) Env {
	e := Env{
		environ: os.Environ,
		sep:     "__",
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Apply implements the Source interface. Keys are lower cased
// when a prefix is set.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if src.prefix != "" {
			if !strings.HasPrefix(k, src.prefix) {
				continue
			}
			k = strings.ToLower(strings.TrimPrefix(k, src.prefix))
		}
		if k == "" {
			continue
		}

		err := store.Set(envKey(k, src.sep), v)
		if err != nil {
			return err
		}
	}
	return nil
}

func envKey(k, sep string) key.Keyer {
	if sep == "" || !strings.Contains(k, sep) {
		return key.Name(k)
	}
	parts := strings.Split(k, sep)
	chain := make(key.Chain, 0, len(parts))
	for _, p := range parts {
		chain = append(chain, key.Name(p))
	}
	return chain
}
