// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package adder computes fixed width two's-complement additions by simulating
// a ripple-carry adder.
//
// Every evaluation builds its own private circuit: nothing is shared between
// two calls to Add, so an Adder can be used concurrently.
//
package adder

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/bitvec"
	"github.com/db47h/evsim/hwlib"
)

// DefaultBits is the width used by an Adder created without WithBits.
//
const DefaultBits = 32

var (
	tracer = otel.Tracer("evsim.adder")
	meter  = otel.Meter("evsim.adder")
)

// An Option configures an Adder.
//
type Option func(*Adder)

// WithBits sets the width of the adder.
//
func WithBits(n int) Option {
	return func(a *Adder) { a.bits = n }
}

// WithLogger sets the logger. A nil logger selects slog.Default().
//
func WithLogger(l *slog.Logger) Option {
	return func(a *Adder) { a.logger = l }
}

// WithProbe registers f to be called for every line of the adder (operands,
// sum and carries) as soon as it is set.
//
// AddAll runs several evaluations at once, so f must be safe for concurrent
// use.
//
func WithProbe(f func(name string, v int)) Option {
	return func(a *Adder) { a.probe = f }
}

// WithTrace enables debug logging of every line of the adder as it is set.
//
func WithTrace(on bool) Option {
	return func(a *Adder) { a.trace = on }
}

// WithWorkers limits the number of evaluations run in parallel by AddAll.
// n <= 0 means no limit.
//
func WithWorkers(n int) Option {
	return func(a *Adder) { a.workers = n }
}

// Adder evaluates additions on freshly built ripple-carry adder circuits.
//
type Adder struct {
	bits    int
	logger  *slog.Logger
	probe   func(name string, v int)
	trace   bool
	workers int

	metricsOnce sync.Once
	additions   metric.Int64Counter
	failures    metric.Int64Counter
	lineSets    metric.Int64Counter
	notified    metric.Int64Counter
	latency     metric.Float64Histogram
}

// New returns a new Adder.
//
func New(opts ...Option) *Adder {
	a := &Adder{bits: DefaultBits}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Bits returns the width of the adder.
//
func (a *Adder) Bits() int { return a.bits }

func (a *Adder) initMetrics() {
	a.metricsOnce.Do(func() {
		var initErrors []string
		var err error
		a.additions, err = meter.Int64Counter("evsim_additions_total",
			metric.WithDescription("Number of completed additions"),
		)
		if err != nil {
			initErrors = append(initErrors, "additions: "+err.Error())
		}
		a.failures, err = meter.Int64Counter("evsim_addition_failures_total",
			metric.WithDescription("Number of failed additions"),
		)
		if err != nil {
			initErrors = append(initErrors, "failures: "+err.Error())
		}
		a.lineSets, err = meter.Int64Counter("evsim_line_sets_total",
			metric.WithDescription("Number of signal lines set"),
		)
		if err != nil {
			initErrors = append(initErrors, "line_sets: "+err.Error())
		}
		a.notified, err = meter.Int64Counter("evsim_notifications_total",
			metric.WithDescription("Number of observer notifications"),
		)
		if err != nil {
			initErrors = append(initErrors, "notifications: "+err.Error())
		}
		a.latency, err = meter.Float64Histogram("evsim_addition_duration_seconds",
			metric.WithDescription("Time spent building and evaluating an adder circuit"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "latency: "+err.Error())
		}
		if len(initErrors) > 0 {
			a.logger.Error("failed to initialize some adder metrics",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
}

// Result holds the outcome of a single evaluation.
//
type Result struct {
	Sum      *big.Int    `json:"sum"`      // signed sum
	Unsigned *big.Int    `json:"unsigned"` // sum bits read as an unsigned integer
	Bits     []int       `json:"bits"`     // sum bits, least significant first
	Carry    int         `json:"carry"`    // final carry out, discarded by Sum
	Circuit  uuid.UUID   `json:"circuit"`
	Stats    evsim.Stats `json:"stats"`
}

// Evaluate builds an adder circuit, drives its inputs with x and y, and
// returns the settled outputs.
//
// Operand bits are driven in index order, A[i] then B[i], from the least
// significant bit. Operands wider than the adder are truncated.
//
func (a *Adder) Evaluate(ctx context.Context, x, y *big.Int) (*Result, error) {
	a.initMetrics()
	ctx, span := tracer.Start(ctx, "adder.Evaluate",
		trace.WithAttributes(attribute.Int("adder.bits", a.bits)),
	)
	defer span.End()

	start := time.Now()
	r, err := a.evaluate(x, y)
	elapsed := time.Since(start)
	attrs := metric.WithAttributes(attribute.Int("bits", a.bits))
	if a.latency != nil {
		a.latency.Record(ctx, elapsed.Seconds(), attrs)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if a.failures != nil {
			a.failures.Add(ctx, 1, attrs)
		}
		a.logger.Error("addition failed",
			slog.Int("bits", a.bits),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("circuit.id", r.Circuit.String()),
		attribute.Int("circuit.lines", r.Stats.Lines),
		attribute.Int("circuit.sets", r.Stats.Sets),
		attribute.Int("circuit.notifications", r.Stats.Notifications),
	)
	span.SetStatus(codes.Ok, "")
	if a.additions != nil {
		a.additions.Add(ctx, 1, attrs)
	}
	if a.lineSets != nil {
		a.lineSets.Add(ctx, int64(r.Stats.Sets), attrs)
	}
	if a.notified != nil {
		a.notified.Add(ctx, int64(r.Stats.Notifications), attrs)
	}
	a.logger.Debug("addition complete",
		slog.String("circuit", r.Circuit.String()),
		slog.Int("bits", a.bits),
		slog.String("sum", r.Sum.String()),
		slog.Int("carry", r.Carry),
		slog.Duration("duration", elapsed),
	)
	return r, nil
}

func (a *Adder) evaluate(x, y *big.Int) (*Result, error) {
	if a.bits < 1 {
		return nil, errors.Wrapf(hwlib.ErrInvalidWidth, "%d bits", a.bits)
	}
	c := evsim.NewCircuit()
	add, err := hwlib.BuildAdder(c, a.bits)
	if err != nil {
		return nil, err
	}
	col, err := hwlib.NewCollector(c, add.Sum)
	if err != nil {
		return nil, err
	}
	if a.probe != nil {
		for _, ls := range [][]evsim.Line{add.A, add.B, add.Sum, add.Carry} {
			for _, l := range ls {
				hwlib.Probe(c, l, a.probe)
			}
		}
	}
	if a.trace {
		hwlib.LogProbe(c, a.logger, add.Sum...)
		hwlib.LogProbe(c, a.logger, add.Carry...)
	}

	xs, ys := bitvec.Encode(x, a.bits), bitvec.Encode(y, a.bits)
	for i := range xs {
		if err = c.Set(add.A[i], xs[i]); err != nil {
			return nil, errors.Wrapf(err, "circuit %s", c.ID())
		}
		if err = c.Set(add.B[i], ys[i]); err != nil {
			return nil, errors.Wrapf(err, "circuit %s", c.ID())
		}
	}

	sum, err := col.Int()
	if err != nil {
		return nil, errors.Wrapf(err, "circuit %s did not settle", c.ID())
	}
	u, _ := col.Result()
	bits, _ := hwlib.Bits(c, add.Sum)
	carry, err := c.Value(add.Carry[a.bits])
	if err != nil {
		return nil, errors.Wrapf(err, "circuit %s did not settle", c.ID())
	}
	return &Result{
		Sum:      sum,
		Unsigned: u,
		Bits:     bits,
		Carry:    carry,
		Circuit:  c.ID(),
		Stats:    c.Stats(),
	}, nil
}

// Add returns x + y computed on a fresh circuit, wrapped around to the adder's
// width in two's-complement.
//
func (a *Adder) Add(ctx context.Context, x, y *big.Int) (*big.Int, error) {
	r, err := a.Evaluate(ctx, x, y)
	if err != nil {
		return nil, err
	}
	return r.Sum, nil
}

// A Pair holds the operands of one addition.
//
type Pair struct {
	A, B *big.Int
}

// AddAll evaluates every pair in parallel, each on its own circuit, and returns
// the sums in the same order. It stops at the first error or when ctx is
// canceled.
//
func (a *Adder) AddAll(ctx context.Context, pairs []Pair) ([]*big.Int, error) {
	ctx, span := tracer.Start(ctx, "adder.AddAll",
		trace.WithAttributes(attribute.Int("adder.pairs", len(pairs))),
	)
	defer span.End()

	out := make([]*big.Int, len(pairs))
	g, gCtx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for i, p := range pairs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			s, err := a.Add(gCtx, p.A, p.B)
			if err != nil {
				return errors.Wrapf(err, "pair %d", i)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// Chain folds Add over values: ((v0 + v1) + v2) + ... An empty list sums to 0.
//
func (a *Adder) Chain(ctx context.Context, values ...*big.Int) (*big.Int, error) {
	acc := new(big.Int)
	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := a.Add(ctx, acc, v)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		acc = s
	}
	return acc, nil
}

// Add returns x + y computed on a bits-wide adder.
//
func Add(x, y *big.Int, bits int) (*big.Int, error) {
	return New(WithBits(bits)).Add(context.Background(), x, y)
}

// AddInt64 is like Add for int64 operands. It fails if the sum does not fit in
// an int64, which can only happen for widths above 64 bits.
//
func AddInt64(x, y int64, bits int) (int64, error) {
	s, err := Add(big.NewInt(x), big.NewInt(y), bits)
	if err != nil {
		return 0, err
	}
	if !s.IsInt64() {
		return 0, errors.Errorf("sum %s overflows int64", s)
	}
	return s.Int64(), nil
}
