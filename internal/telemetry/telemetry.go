// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package telemetry installs the global OpenTelemetry trace and meter
// providers for the adder command.
//
package telemetry

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names.
//
const (
	None   = "none"
	Stdout = "stdout"
)

// ErrUnknownExporter is returned for an exporter name other than None or
// Stdout.
//
var ErrUnknownExporter = errors.New("unknown exporter")

// Config selects the exporters.
//
type Config struct {
	Traces  string `yaml:"traces"`
	Metrics string `yaml:"metrics"`
}

// Enabled returns true if any exporter is configured.
//
func (c Config) Enabled() bool {
	return c.Traces != "" && c.Traces != None || c.Metrics != "" && c.Metrics != None
}

// Validate checks the exporter names.
//
func (c Config) Validate() error {
	for _, e := range []string{c.Traces, c.Metrics} {
		switch e {
		case "", None, Stdout:
		default:
			return errors.Wrap(ErrUnknownExporter, e)
		}
	}
	return nil
}

// Init installs the configured providers. Stdout exporters write to w. The
// returned function flushes and shuts down every installed provider.
//
func Init(ctx context.Context, cfg Config, service string, w io.Writer) (shutdown func(context.Context) error, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var first error
		for _, fn := range shutdownFuncs {
			if err := fn(ctx); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", service),
	)

	if cfg.Traces == Stdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, errors.Wrap(err, "create trace exporter")
		}
		tp := trace.NewTracerProvider(
			trace.WithBatcher(exp),
			trace.WithResource(res),
			trace.WithSampler(trace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	}

	if cfg.Metrics == Stdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			_ = shutdown(ctx)
			return nil, errors.Wrap(err, "create metric exporter")
		}
		mp := metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exp)),
		)
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	}

	return shutdown, nil
}
