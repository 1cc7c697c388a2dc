// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the configuration of the adder command.
//
// Values come from the defaults, then from an optional YAML file, then from
// EVSIM_* and OTEL_*_EXPORTER environment variables, in that order.
//
package config

import (
	"io"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/db47h/evsim/internal/telemetry"
)

// Config is the top level configuration.
//
type Config struct {
	// Bits is the width of the simulated adder.
	Bits int `yaml:"bits" validate:"min=1"`
	// Workers limits parallel evaluations. 0 means no limit.
	Workers int `yaml:"workers" validate:"min=0"`
	// Trace logs every sum and carry line as it settles.
	Trace bool `yaml:"trace"`
	// Log configures the logger.
	Log LogConfig `yaml:"log"`
	// Telemetry selects the OpenTelemetry exporters.
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// LogConfig configures logging.
//
type LogConfig struct {
	Level  string `yaml:"level"`                                  // debug, info, warn or error
	Format string `yaml:"format" validate:"oneof=text json auto"` // auto: text on a terminal, json otherwise
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
	})
}

// Default returns the default configuration.
//
func Default() Config {
	return Config{
		Bits:    32,
		Workers: 0,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: telemetry.Config{
			Traces:  telemetry.None,
			Metrics: telemetry.None,
		},
	}
}

// Load returns the default configuration overridden by the YAML file at path,
// if path is not empty, and by the environment.
//
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "load config file")
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parse config file "+path)
		}
	}
	if err := cfg.fromEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"EVSIM_BITS", &c.Bits},
		{"EVSIM_WORKERS", &c.Workers},
	} {
		if s := os.Getenv(v.name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return errors.Wrap(err, v.name)
			}
			*v.dst = n
		}
	}
	if s := os.Getenv("EVSIM_TRACE"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return errors.Wrap(err, "EVSIM_TRACE")
		}
		c.Trace = b
	}
	if s := os.Getenv("EVSIM_LOG_LEVEL"); s != "" {
		c.Log.Level = s
	}
	if s := os.Getenv("EVSIM_LOG_FORMAT"); s != "" {
		c.Log.Format = s
	}
	if s := os.Getenv("OTEL_TRACES_EXPORTER"); s != "" {
		c.Telemetry.Traces = s
	}
	if s := os.Getenv("OTEL_METRICS_EXPORTER"); s != "" {
		c.Telemetry.Metrics = s
	}
	return nil
}

// Validate checks that the configuration is valid.
//
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

func fieldError(fe validator.FieldError) error {
	// namespace is "Config.log.format"
	name := fe.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch fe.Tag() {
	case "min":
		return errors.Errorf("%s must be >= %s, got %v", name, fe.Param(), fe.Value())
	case "oneof":
		return errors.Errorf("unknown %s %q", strings.ReplaceAll(name, ".", " "), fe.Value())
	}
	return errors.Errorf("invalid %s: %v", name, fe.Value())
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, errors.Errorf("unknown log level %q", l.Level)
	}
	return lvl, nil
}

// NewLogger returns a logger writing to w as configured.
//
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	format := l.Format
	if format == "auto" {
		format = "json"
		if f, ok := w.(interface{ Fd() uintptr }); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = "text"
		}
	}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, errors.Errorf("unknown log format %q", l.Format)
}
