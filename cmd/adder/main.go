// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command adder adds integers on a simulated ripple-carry adder.
//
//	adder add 100 200 --bits 8
//	adder chain 4 8 15 16 23 42
//	adder encode --bits 4 -- -3
//	adder decode 1101
//	echo "1 2" | adder batch
//
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/db47h/evsim/adder"
	"github.com/db47h/evsim/bitvec"
	"github.com/db47h/evsim/internal/config"
	"github.com/db47h/evsim/internal/telemetry"
)

var json = jsoniter.ConfigFastest

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	// flags
	configPath string
	bits       int
	workers    int
	asJSON     bool
	trace      bool
	logLevel   string
	otelStdout bool

	cfg      config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "adder",
		Short:         "Two's-complement addition on a simulated ripple-carry adder",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.IntVarP(&a.bits, "bits", "b", 0, "adder width (default from config, 32)")
	pf.IntVar(&a.workers, "workers", 0, "maximum parallel evaluations for batch")
	pf.BoolVar(&a.asJSON, "json", false, "JSON output")
	pf.BoolVar(&a.trace, "trace", false, "log every sum and carry line as it settles")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.otelStdout, "otel-stdout", false, "export traces and metrics to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "add A B",
			Short: "Add two integers",
			Args:  cobra.ExactArgs(2),
			RunE:  a.runAdd,
		},
		&cobra.Command{
			Use:   "chain V...",
			Short: "Add a list of integers, left to right",
			Args:  cobra.MinimumNArgs(1),
			RunE:  a.runChain,
		},
		&cobra.Command{
			Use:   "encode V",
			Short: "Print the bit vector of an integer, most significant bit first",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runEncode,
		},
		&cobra.Command{
			Use:   "decode BITS",
			Short: "Print the unsigned and signed values of a bit string",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runDecode,
		},
		&cobra.Command{
			Use:   "batch [FILE]",
			Short: "Add pairs of integers read one pair per line, in parallel",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.runBatch,
		},
	)
	return root
}

// setup merges the configuration file with the command line flags.
//
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	fl := cmd.Flags()
	if fl.Changed("bits") {
		cfg.Bits = a.bits
	}
	if fl.Changed("workers") {
		cfg.Workers = a.workers
	}
	if fl.Changed("trace") {
		cfg.Trace = a.trace
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cfg.Trace && !fl.Changed("log-level") {
		cfg.Log.Level = "debug"
	}
	if a.otelStdout {
		cfg.Telemetry = telemetry.Config{Traces: telemetry.Stdout, Metrics: telemetry.Stdout}
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	if a.logger, err = cfg.Log.NewLogger(a.stderr); err != nil {
		return err
	}
	if cfg.Telemetry.Enabled() {
		if a.shutdown, err = telemetry.Init(cmd.Context(), cfg.Telemetry, "evsim-adder", a.stderr); err != nil {
			return err
		}
	}
	a.cfg = cfg
	return nil
}

func (a *app) adder() *adder.Adder {
	return adder.New(
		adder.WithBits(a.cfg.Bits),
		adder.WithLogger(a.logger),
		adder.WithTrace(a.cfg.Trace),
		adder.WithWorkers(a.cfg.Workers),
	)
}

func parseInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, errors.Errorf("invalid integer %q", s)
	}
	return v, nil
}

func parseInts(args []string) ([]*big.Int, error) {
	vs := make([]*big.Int, len(args))
	for i, s := range args {
		v, err := parseInt(s)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (a *app) print(v interface{}, text string) error {
	if a.asJSON {
		b, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "encode output")
		}
		_, err = fmt.Fprintln(a.stdout, string(b))
		return err
	}
	_, err := fmt.Fprintln(a.stdout, text)
	return err
}

func (a *app) runAdd(cmd *cobra.Command, args []string) error {
	vs, err := parseInts(args)
	if err != nil {
		return err
	}
	r, err := a.adder().Evaluate(cmd.Context(), vs[0], vs[1])
	if err != nil {
		return err
	}
	return a.print(r, r.Sum.String())
}

func (a *app) runChain(cmd *cobra.Command, args []string) error {
	vs, err := parseInts(args)
	if err != nil {
		return err
	}
	s, err := a.adder().Chain(cmd.Context(), vs...)
	if err != nil {
		return err
	}
	return a.print(map[string]interface{}{"sum": s, "bits": a.cfg.Bits}, s.String())
}

func (a *app) runEncode(_ *cobra.Command, args []string) error {
	v, err := parseInt(args[0])
	if err != nil {
		return err
	}
	bits := bitvec.Encode(v, a.cfg.Bits)
	s := bitvec.String(bits)
	return a.print(map[string]interface{}{"value": v, "bits": s}, s)
}

func (a *app) runDecode(_ *cobra.Command, args []string) error {
	bits, err := bitvec.Parse(args[0])
	if err != nil {
		return err
	}
	u, err := bitvec.Decode(bits)
	if err != nil {
		return err
	}
	s := bitvec.Signed(u, bits[len(bits)-1], len(bits))
	return a.print(map[string]interface{}{"unsigned": u, "signed": s, "width": len(bits)},
		u.String()+" "+s.String())
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	in := a.stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	pairs, err := readPairs(in)
	if err != nil {
		return err
	}
	sums, err := a.adder().AddAll(cmd.Context(), pairs)
	if err != nil {
		return err
	}
	if a.asJSON {
		return a.print(sums, "")
	}
	for _, s := range sums {
		if _, err = fmt.Fprintln(a.stdout, s); err != nil {
			return err
		}
	}
	return nil
}

// readPairs reads one pair of integers per line. Blank lines and lines
// starting with # are skipped.
//
func readPairs(r io.Reader) ([]adder.Pair, error) {
	var pairs []adder.Pair
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Fields(line)
		if len(f) != 2 {
			return nil, errors.Errorf("line %d: expected 2 integers, got %d fields", n, len(f))
		}
		vs, err := parseInts(f)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		pairs = append(pairs, adder.Pair{A: vs[0], B: vs[1]})
	}
	return pairs, sc.Err()
}

// run executes the command line args, then flushes telemetry.
//
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if a.shutdown != nil {
		if serr := a.shutdown(ctx); serr != nil && err == nil {
			err = errors.Wrap(serr, "telemetry shutdown")
		}
	}
	return err
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "adder: %v\n", err)
		os.Exit(1)
	}
}
