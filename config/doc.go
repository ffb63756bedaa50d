// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides composable configuration sources which are
// merged into a single key value tree and decoded into structs.
//
// # Sources
//
// A [Source] applies its key value pairs to a [Store]. The built in sources
// read YAML, JSON, TOML, environment variables or a plain [Map]. When multiple
// sources are read, later sources override earlier ones:
//
//	m, err := config.Read(
//	    config.FromYaml(config.NewFileReader(os.DirFS("."), "server.yaml")),
//	    config.FromEnv(config.EnvPrefix("WSRVR_")),
//	)
//
// # Decoding
//
// [Manager.Unmarshal] decodes the merged tree into a struct using the
// "config" struct tag. Values implementing [encoding.TextUnmarshaler] and
// [time.Duration] values are decoded from strings, and comma separated
// strings can be decoded into string slices.
//
//	var cfg struct {
//	    Port    int           `config:"port"`
//	    MaxAge  time.Duration `config:"max_age"`
//	}
//	err = m.Unmarshal(&cfg)
//
// # Templates
//
// Config files can be rendered as a text/template before being parsed,
// see [RenderTextTemplate]. The "env" and "default" functions are
// available by default.
package config
