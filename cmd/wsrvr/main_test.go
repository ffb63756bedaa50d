// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/z5labs/wsrvr"
	"github.com/z5labs/wsrvr/config"

	"github.com/stretchr/testify/require"
)

func execute(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestHealthcheck(t *testing.T) {
	t.Run("will succeed", func(t *testing.T) {
		t.Run("if every server responds below 500", func(t *testing.T) {
			ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer ok.Close()

			notFound := httptest.NewServer(http.NotFoundHandler())
			defer notFound.Close()

			out, err := execute(context.Background(), "healthcheck", "--url", ok.URL, "--url", notFound.URL, "--retries", "0")
			require.Nil(t, err)
			require.Contains(t, out, "healthy")
		})

		t.Run("if the server recovers within the retries", func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			_, err := execute(context.Background(), "healthcheck", "--url", srv.URL, "--retries", "3")
			require.Nil(t, err)
			require.Equal(t, int32(3), calls.Load())
		})
	})

	t.Run("will fail", func(t *testing.T) {
		t.Run("if the server keeps responding with 5xx", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			_, err := execute(context.Background(), "healthcheck", "--url", srv.URL, "--retries", "1")

			var uerr UnhealthyError
			require.ErrorAs(t, err, &uerr)
			require.Equal(t, http.StatusInternalServerError, uerr.Status)
		})

		t.Run("if the server is unreachable", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			url := srv.URL
			srv.Close()

			_, err := execute(context.Background(), "healthcheck", "--url", url, "--retries", "0")
			require.Error(t, err)
		})

		t.Run("if the log level is unknown", func(t *testing.T) {
			_, err := execute(context.Background(), "healthcheck", "--log-level", "loud")
			require.Error(t, err)
		})
	})
}

func TestConfigSources(t *testing.T) {
	t.Run("will only read the environment", func(t *testing.T) {
		t.Run("if no config file is given", func(t *testing.T) {
			srcs, err := configSources("", "")
			require.Nil(t, err)
			require.Len(t, srcs, 1)
		})
	})

	t.Run("will determine the format from the file extension", func(t *testing.T) {
		testCases := []struct {
			Name    string
			File    string
			Content string
		}{
			{Name: "yaml", File: "wsrvr.yaml", Content: "port: 8080\n"},
			{Name: "yml", File: "wsrvr.yml", Content: "port: 8080\n"},
			{Name: "json", File: "wsrvr.json", Content: `{"port": 8080}`},
			{Name: "toml", File: "wsrvr.toml", Content: "port = 8080\n"},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), testCase.File)
				require.Nil(t, os.WriteFile(path, []byte(testCase.Content), 0o644))

				srcs, err := configSources(path, "")
				require.Nil(t, err)

				m, err := config.Read(srcs[0])
				require.Nil(t, err)

				var cfg wsrvr.FileConfig
				require.Nil(t, m.Unmarshal(&cfg))
				require.NotNil(t, cfg.Port)
				require.Equal(t, 8080, *cfg.Port)
			})
		}
	})

	t.Run("will render the config file as a template", func(t *testing.T) {
		t.Setenv("WSRVR_TEST_PORT", "9090")

		path := filepath.Join(t.TempDir(), "wsrvr.conf")
		content := `port: {{env "WSRVR_TEST_PORT" | default "80"}}` + "\n"
		require.Nil(t, os.WriteFile(path, []byte(content), 0o644))

		srcs, err := configSources(path, "yaml")
		require.Nil(t, err)

		m, err := config.Read(srcs[0])
		require.Nil(t, err)

		var cfg wsrvr.FileConfig
		require.Nil(t, m.Unmarshal(&cfg))
		require.Equal(t, 9090, *cfg.Port)
	})

	t.Run("will override the config file with the environment", func(t *testing.T) {
		t.Setenv("WSRVR_PORT", "7070")

		path := filepath.Join(t.TempDir(), "wsrvr.yaml")
		require.Nil(t, os.WriteFile(path, []byte("port: 8080\n"), 0o644))

		srcs, err := configSources(path, "")
		require.Nil(t, err)

		m, err := config.Read(srcs...)
		require.Nil(t, err)

		var cfg wsrvr.FileConfig
		require.Nil(t, m.Unmarshal(&cfg))
		require.Equal(t, 7070, *cfg.Port)
	})

	t.Run("will return an UnknownFormatError", func(t *testing.T) {
		t.Run("if the format is not supported", func(t *testing.T) {
			_, err := configSources("wsrvr.ini", "")

			var ferr UnknownFormatError
			require.ErrorAs(t, err, &ferr)
			require.Equal(t, "ini", ferr.Format)
		})
	})
}

func TestServe(t *testing.T) {
	t.Run("will fail", func(t *testing.T) {
		t.Run("if the config file does not exist", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yaml")

			_, err := execute(context.Background(), "serve", "--config", path)

			var rerr wsrvr.ConfigReadError
			require.ErrorAs(t, err, &rerr)
		})

		t.Run("if the config describes an invalid server", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wsrvr.yaml")
			require.Nil(t, os.WriteFile(path, []byte("index:\n  file: index\n"), 0o644))

			_, err := execute(context.Background(), "serve", "--config", path)

			var berr wsrvr.BuildError
			require.ErrorAs(t, err, &berr)
		})
	})
}
