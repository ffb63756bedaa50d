// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wsrvr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/z5labs/wsrvr/config"
	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/resource"
)

// FileConfig describes a server declaratively, e.g. in a YAML file:
//
//	port: 8080
//	static:
//	  - route: /assets
//	    path: ./public
//	    max_age: 1h
//	index:
//	  file: ./public/index.html
//	  root_only: false
//	api:
//	  - methods: [GET]
//	    route: /health
//	    body: ok
type FileConfig struct {
	Port   *int             `config:"port"`
	HTTPS  *CredentialFiles `config:"https"`
	Locals map[string]any   `config:"locals"`
	API    []APIConfig      `config:"api"`
	Static []StaticConfig   `config:"static"`
	Index  *IndexConfig     `config:"index"`
}

// APIConfig declares an API route responding with a fixed body.
type APIConfig struct {
	Methods     []string          `config:"methods"`
	Route       string            `config:"route"`
	Status      int               `config:"status"`
	Body        string            `config:"body"`
	ContentType string            `config:"content_type"`
	Headers     map[string]string `config:"headers"`
	CORS        *CORSConfig       `config:"cors"`
}

// CORSConfig sets the CORS headers of an API route.
type CORSConfig struct {
	Origins        []string      `config:"origins"`
	Methods        []string      `config:"methods"`
	Headers        []string      `config:"headers"`
	ExposedHeaders []string      `config:"exposed_headers"`
	Credentials    bool          `config:"credentials"`
	MaxAge         time.Duration `config:"max_age"`
}

// StaticConfig mounts a file or directory.
type StaticConfig struct {
	Route                  string `config:"route"`
	Path                   string `config:"path"`
	resource.StaticOptions `config:",squash"`
}

// IndexConfig sets the index page.
type IndexConfig struct {
	File     string `config:"file"`
	RootOnly *bool  `config:"root_only"`
}

// FromConfig declares everything described by cfg on a new [Server].
func FromConfig(cfg FileConfig, opts ...Option) (*Server, error) {
	s := New(opts...)
	if cfg.Port != nil {
		s.Port(*cfg.Port)
	}
	if cfg.HTTPS != nil {
		err := s.HTTPSFiles(*cfg.HTTPS)
		if err != nil {
			return nil, err
		}
	}
	if len(cfg.Locals) > 0 {
		s.Locals(cfg.Locals)
	}

	for _, ac := range cfg.API {
		err := declareAPI(s.API(), ac)
		if err != nil {
			return nil, err
		}
	}

	for _, sc := range cfg.Static {
		_, err := s.Static().Add(sc.Route, sc.Path, func(so *resource.StaticOptions) {
			*so = sc.StaticOptions
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Index != nil {
		var idxOpts []IndexOption
		if cfg.Index.RootOnly != nil {
			idxOpts = append(idxOpts, RootOnly(*cfg.Index.RootOnly))
		}
		err := s.Static().Index(cfg.Index.File, idxOpts...)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func declareAPI(c *APIConfigurator, ac APIConfig) error {
	status := ac.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := ac.Body

	api, err := c.Add(ac.Methods, ac.Route, middleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		io.WriteString(w, body)
	}))
	if err != nil {
		return err
	}

	adv := api.Advanced()
	if ac.ContentType != "" {
		adv.ResponseType(ac.ContentType)
	}

	names := make([]string, 0, len(ac.Headers))
	for name := range ac.Headers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		adv.Header(name, ac.Headers[name])
	}

	cors := ac.CORS
	if cors == nil {
		return nil
	}
	if len(cors.Origins) > 0 {
		adv.AllowedOrigins(cors.Origins...)
	}
	if len(cors.Methods) > 0 {
		adv.AllowedMethods(cors.Methods...)
	}
	if len(cors.Headers) > 0 {
		adv.AllowedHeaders(cors.Headers...)
	}
	if len(cors.ExposedHeaders) > 0 {
		adv.ExposedHeaders(cors.ExposedHeaders...)
	}
	if cors.Credentials {
		adv.AllowCredentials()
	}
	if cors.MaxAge > 0 {
		adv.PreflightMaxAge(cors.MaxAge)
	}
	return nil
}

// Run reads a [FileConfig] from the config sources, starts the server it
// describes and stops it once ctx is done. Later sources override
// earlier ones.
func Run(ctx context.Context, srcs []config.Source, opts ...Option) error {
	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	var cfg FileConfig
	err = m.Unmarshal(&cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}

	s, err := FromConfig(cfg, opts...)
	if err != nil {
		return BuildError{Cause: err}
	}

	_, err = s.Start(ctx)
	if err != nil {
		return RunError{Cause: err}
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.stopTimeout)
	defer cancel()

	err = s.Stop(stopCtx)
	if err != nil {
		return RunError{Cause: err}
	}
	return nil
}

// ConfigReadError is returned by [Run] when the config sources fail to be read.
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError is returned by [Run] when the config does not
// describe a [FileConfig].
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s) into server config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// BuildError is returned by [Run] when a resource described by the
// config is invalid.
type BuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BuildError) Error() string {
	return fmt.Sprintf("failed to build server: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BuildError) Unwrap() error {
	return e.Cause
}

// RunError is returned by [Run] when the server fails to start or stop.
type RunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RunError) Error() string {
	return fmt.Sprintf("failed to run server: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RunError) Unwrap() error {
	return e.Cause
}
