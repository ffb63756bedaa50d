// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/wsrvr/pkg/slogfield"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newHealthcheckCmd() *cobra.Command {
	var (
		urls    []string
		retries int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that one or more servers are up",
		Long: `Check that one or more servers are up.

A server is up when it responds with a status below 500. Connection
failures and 5xx responses are retried with an exponential backoff.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := logHandler(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			log := slog.New(h)
			c := newHealthClient(log, retries, timeout)

			g, gctx := errgroup.WithContext(cmd.Context())
			for _, u := range urls {
				g.Go(func() error {
					return checkHealth(gctx, log, c, u)
				})
			}
			err = g.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&urls, "url", []string{"http://localhost:80/"}, "URL of the server, may be repeated.")
	cmd.Flags().IntVar(&retries, "retries", 3, "Maximum number of retries per URL.")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Timeout of a single attempt.")

	return cmd
}

func newHealthClient(log *slog.Logger, retries int, timeout time.Duration) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Logger:       log,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		RetryMax:     retries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

// UnhealthyError is returned when a server responds with a 5xx status.
type UnhealthyError struct {
	URL    string
	Status int
}

// Error implements the [builtin.error] interface.
func (e UnhealthyError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.URL, e.Status)
}

func checkHealth(ctx context.Context, log *slog.Logger, c *retryablehttp.Client, url string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return UnhealthyError{URL: url, Status: resp.StatusCode}
	}
	log.DebugContext(
		ctx,
		"server is up",
		slogfield.String("url", url),
		slogfield.Int("status", resp.StatusCode),
	)
	return nil
}
