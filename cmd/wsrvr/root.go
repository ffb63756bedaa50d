// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wsrvr",
		Short:         "Serve API routes, static files and single page apps",
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().String("log-level", "info", "Minimum level of the logs: debug, info, warn or error.")

	cmd.AddCommand(
		newServeCmd(),
		newHealthcheckCmd(),
	)
	return cmd
}

func logHandler(cmd *cobra.Command, w io.Writer) (slog.Handler, error) {
	lvl, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(lvl)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          cmd.Name(),
	})
	return logger, nil
}
