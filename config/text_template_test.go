// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextTemplateRenderer_Read(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying io.Reader fails", func(t *testing.T) {
			readErr := errors.New("failed to read")
			r := readFunc(func(b []byte) (int, error) {
				return 0, readErr
			})

			ttr := RenderTextTemplate(r)
			_, err := io.ReadAll(ttr)
			if !assert.ErrorIs(t, err, readErr) {
				return
			}
		})

		t.Run("if the underlying io.Reader contains an invalid text/template", func(t *testing.T) {
			r := strings.NewReader(`{{ hello`)

			ttr := RenderTextTemplate(r)
			_, err := io.ReadAll(ttr)

			var ierr TextTemplateParseError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
			if !assert.NotEmpty(t, ierr.Error()) {
				return
			}
			if !assert.Error(t, ierr.Unwrap()) {
				return
			}
		})

		t.Run("if the parsed text/template fails to execute", func(t *testing.T) {
			r := strings.NewReader(`{{ hello }}`)

			ttr := RenderTextTemplate(
				r,
				TemplateFunc("hello", func() string {
					panic("ahhhh")
				}),
			)
			_, err := io.ReadAll(ttr)

			var ierr TextTemplateExecError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
			if !assert.NotEmpty(t, ierr.Error()) {
				return
			}
			if !assert.Error(t, ierr.Unwrap()) {
				return
			}
		})
	})

	t.Run("will render the env and default functions", func(t *testing.T) {
		t.Setenv("WSRVR_TEST_PORT", "9090")

		r := strings.NewReader(`port: {{ env "WSRVR_TEST_PORT" }}
host: {{ env "WSRVR_TEST_MISSING" | default "localhost" }}`)

		b, err := io.ReadAll(RenderTextTemplate(r))
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "port: 9090\nhost: localhost", string(b)) {
			return
		}
	})

	t.Run("will keep returning the render error", func(t *testing.T) {
		ttr := RenderTextTemplate(strings.NewReader(`{{ hello`))

		_, err := ttr.Read(make([]byte, 8))
		if !assert.Error(t, err) {
			return
		}
		_, err = ttr.Read(make([]byte, 8))
		if !assert.Error(t, err) {
			return
		}
	})
}
