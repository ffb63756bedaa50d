// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/z5labs/wsrvr"
	"github.com/z5labs/wsrvr/config"

	"github.com/spf13/cobra"
)

const envPrefix = "WSRVR_"

func newServeCmd() *cobra.Command {
	var (
		cfgPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server described by the config and serve until interrupted",
		Long: `Start the server described by the config and serve until interrupted.

The config file is rendered as a text/template before being parsed, the
"env" and "default" functions are available to it. Environment variables
prefixed with ` + envPrefix + ` override the config file, nested keys are
separated by a double underscore, e.g. ` + envPrefix + `HTTPS__CERT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := logHandler(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			srcs, err := configSources(cfgPath, format)
			if err != nil {
				return err
			}

			return wsrvr.Run(cmd.Context(), srcs, wsrvr.WithLogHandler(h))
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the config file.")
	cmd.Flags().StringVar(&format, "format", "", "Format of the config file: yaml, json or toml. Defaults to the file extension.")

	return cmd
}

// UnknownFormatError is returned when the config format can not be determined.
type UnknownFormatError struct {
	Format string
}

// Error implements the [builtin.error] interface.
func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown config format: %q", e.Format)
}

func configSources(path, format string) ([]config.Source, error) {
	env := config.FromEnv(config.EnvPrefix(envPrefix))
	if path == "" {
		return []config.Source{env}, nil
	}

	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	r := config.RenderTextTemplate(
		config.NewFileReader(os.DirFS(filepath.Dir(abs)), filepath.Base(abs)),
	)

	var file config.Source
	switch strings.ToLower(format) {
	case "yaml", "yml":
		file = config.FromYaml(r)
	case "json":
		file = config.FromJson(r)
	case "toml":
		file = config.FromToml(r)
	default:
		return nil, UnknownFormatError{Format: format}
	}
	return []config.Source{file, env}, nil
}
