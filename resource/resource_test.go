// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/z5labs/wsrvr/middleware"

	"github.com/stretchr/testify/require"
)

func TestParseMethods(t *testing.T) {
	t.Run("will normalize case and split comma separated lists", func(t *testing.T) {
		ms, err := ParseMethods("get, Post", "put")
		require.Nil(t, err)
		require.Equal(t, []Method{MethodGet, MethodPost, MethodPut}, ms)
	})

	t.Run("will drop duplicate methods", func(t *testing.T) {
		ms, err := ParseMethods("GET", "get,POST")
		require.Nil(t, err)
		require.Equal(t, []Method{MethodGet, MethodPost}, ms)
	})

	t.Run("will return a ValidationError", func(t *testing.T) {
		t.Run("if a method is not supported", func(t *testing.T) {
			_, err := ParseMethods("GET", "CONNECT")

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, "method", verr.Field)
			require.ErrorIs(t, err, ErrUnsupportedMethod)
		})

		t.Run("if no methods are given", func(t *testing.T) {
			_, err := ParseMethods()
			require.ErrorIs(t, err, ErrNoMethods)
		})
	})
}

func TestNewAPI(t *testing.T) {
	t.Run("will return a ValidationError", func(t *testing.T) {
		testCases := []struct {
			Name    string
			Methods []string
			Route   string
			Err     error
		}{
			{
				Name:    "if the route does not start with a slash",
				Methods: []string{"GET"},
				Route:   "users",
				Err:     ErrInvalidRoute,
			},
			{
				Name:    "if the route is empty",
				Methods: []string{"GET"},
				Route:   "",
				Err:     ErrInvalidRoute,
			},
			{
				Name:    "if a method is unsupported",
				Methods: []string{"TRACE"},
				Route:   "/",
				Err:     ErrUnsupportedMethod,
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				_, err := NewAPI(testCase.Methods, testCase.Route)

				var verr ValidationError
				require.ErrorAs(t, err, &verr)
				require.True(t, errors.Is(err, testCase.Err))
			})
		}
	})

	t.Run("will drop nil middlewares", func(t *testing.T) {
		mw := func(h http.Handler) http.Handler { return h }

		api, err := NewAPI([]string{"GET"}, "/a", nil, mw, nil)
		require.Nil(t, err)
		require.Len(t, api.Middleware(), 1)
	})

	t.Run("will not create advanced settings until requested", func(t *testing.T) {
		api, err := NewAPI([]string{"GET"}, "/a")
		require.Nil(t, err)
		require.False(t, api.HasAdvanced())

		api.Advanced().Header("X-A", "1")
		require.True(t, api.HasAdvanced())
		require.Same(t, api.Advanced(), api.Advanced())
	})
}

func TestAdvanced_Header(t *testing.T) {
	t.Run("will keep headers in declaration order", func(t *testing.T) {
		a := &Advanced{}
		a.AllowedOrigins("*").
			Header("X-Custom", "1").
			AllowedMethods("GET", "POST").
			PreflightMaxAge(90 * time.Second)

		expected := []middleware.Header{
			{Name: "Access-Control-Allow-Origin", Value: "*"},
			{Name: "X-Custom", Value: "1"},
			{Name: "Access-Control-Allow-Methods", Value: "GET, POST"},
			{Name: "Access-Control-Max-Age", Value: "90"},
		}
		require.Equal(t, expected, a.Headers())
	})

	t.Run("will replace the value of a header set twice in place", func(t *testing.T) {
		a := &Advanced{}
		a.Header("x-a", "1").Header("X-B", "2").Header("X-A", "3")

		expected := []middleware.Header{
			{Name: "x-a", Value: "3"},
			{Name: "X-B", Value: "2"},
		}
		require.Equal(t, expected, a.Headers())
	})

	t.Run("will return a copy of the headers", func(t *testing.T) {
		a := &Advanced{}
		a.ResponseType("text/plain")

		hs := a.Headers()
		hs[0].Value = "application/json"
		require.Equal(t, "text/plain", a.Headers()[0].Value)
	})
}

func TestAdvanced_Parsers(t *testing.T) {
	t.Run("will keep parsers in declaration order", func(t *testing.T) {
		a := &Advanced{}
		a.ParseText(nil).ParseJSON(map[string]any{"strict": false}).ParseRaw(nil)

		ps := a.Parsers()
		require.Len(t, ps, 3)
		require.Equal(t, ParserText, ps[0].Kind)
		require.Equal(t, ParserJSON, ps[1].Kind)
		require.Equal(t, ParserRaw, ps[2].Kind)
	})

	t.Run("will replace the options of a parser declared twice", func(t *testing.T) {
		a := &Advanced{}
		a.ParseURLEncoded(nil).ParseJSON(nil).ParseURLEncoded(map[string]any{"limit": "1kb"})

		ps := a.Parsers()
		require.Len(t, ps, 2)
		require.Equal(t, ParserURLEncoded, ps[0].Kind)
		require.Equal(t, map[string]any{"limit": "1kb"}, ps[0].Options)
	})
}

func TestNewStatic(t *testing.T) {
	t.Run("will resolve relative paths and apply defaults", func(t *testing.T) {
		s, err := NewStatic("/assets", "public", StaticOptions{})
		require.Nil(t, err)

		abs, err := filepath.Abs("public")
		require.Nil(t, err)
		require.Equal(t, abs, s.Path)
		require.Equal(t, DotfilesIgnore, s.Options.Dotfiles)
		require.NotNil(t, s.Options.ETag)
		require.True(t, *s.Options.ETag)
	})

	t.Run("will return a ValidationError", func(t *testing.T) {
		t.Run("if the route is invalid", func(t *testing.T) {
			_, err := NewStatic("assets", "public", StaticOptions{})
			require.ErrorIs(t, err, ErrInvalidRoute)
		})

		t.Run("if the path is empty", func(t *testing.T) {
			_, err := NewStatic("/assets", "", StaticOptions{})
			require.ErrorIs(t, err, ErrInvalidPath)
		})

		t.Run("if the dotfiles policy is unknown", func(t *testing.T) {
			_, err := NewStatic("/assets", "public", StaticOptions{Dotfiles: "show"})
			require.ErrorIs(t, err, ErrInvalidDotfiles)
		})
	})
}

func TestNewIndex(t *testing.T) {
	t.Run("will return a ValidationError", func(t *testing.T) {
		t.Run("if the file has no extension", func(t *testing.T) {
			_, err := NewIndex("public/index", false)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			require.ErrorIs(t, err, ErrInvalidFile)
		})

		t.Run("if the file is empty", func(t *testing.T) {
			_, err := NewIndex("", false)
			require.ErrorIs(t, err, ErrInvalidFile)
		})

		t.Run("if the extension is only a dot", func(t *testing.T) {
			_, err := NewIndex("public/index.", false)
			require.ErrorIs(t, err, ErrInvalidFile)
		})
	})

	t.Run("will resolve the file to an absolute path", func(t *testing.T) {
		idx, err := NewIndex("public/index.html", true)
		require.Nil(t, err)
		require.True(t, filepath.IsAbs(idx.File))
		require.True(t, idx.RootOnly)
		require.True(t, idx.IsSet())
	})
}
