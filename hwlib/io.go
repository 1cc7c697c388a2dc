// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"context"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/bitvec"
	"github.com/pkg/errors"
)

// SetBits drives lines with the given bit vector. Line i is set to bits[i].
//
func SetBits(c *evsim.Circuit, lines []evsim.Line, bits []int) error {
	if len(bits) != len(lines) {
		return errors.Errorf("bit vector size mismatch: %d lines, %d bits", len(lines), len(bits))
	}
	for i, l := range lines {
		if err := c.Set(l, bits[i]); err != nil {
			return err
		}
	}
	return nil
}

// Bits returns the values of lines as a bit vector. It fails with
// evsim.ErrNotSet if any of the lines is not set.
//
func Bits(c *evsim.Circuit, lines []evsim.Line) ([]int, error) {
	out := make([]int, len(lines))
	for i, l := range lines {
		v, err := c.Value(l)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// A Collector observes a group of lines and decodes their values once all of
// them are set.
//
type Collector struct {
	lines  []evsim.Line
	done   bool
	result *big.Int
	sign   int

	// OnSettled, if not nil, is called once with the signed result when all
	// lines have settled. An error aborts the propagation cascade.
	OnSettled func(v *big.Int) error
}

// NewCollector returns a new Collector for the given lines, least significant
// bit first, and subscribes it to each of them.
//
func NewCollector(c *evsim.Circuit, lines []evsim.Line) (*Collector, error) {
	if len(lines) == 0 {
		return nil, errors.New("collector with no lines")
	}
	r := &Collector{lines: append([]evsim.Line(nil), lines...)}
	for _, l := range r.lines {
		c.Observe(l, r)
	}
	if err := r.Update(c); err != nil {
		return nil, err
	}
	return r, nil
}

// Update implements evsim.Observer.
//
func (r *Collector) Update(c *evsim.Circuit) error {
	if r.done {
		return nil
	}
	for _, l := range r.lines {
		if !c.IsSet(l) {
			return nil
		}
	}
	bits, err := Bits(c, r.lines)
	if err != nil {
		return err
	}
	if r.result, err = bitvec.Decode(bits); err != nil {
		return err
	}
	r.sign = bits[len(bits)-1]
	r.done = true
	if r.OnSettled != nil {
		return r.OnSettled(bitvec.Signed(r.result, r.sign, len(r.lines)))
	}
	return nil
}

// Done returns true once all lines have settled.
//
func (r *Collector) Done() bool { return r.done }

// Result returns the unsigned value of the lines.
//
func (r *Collector) Result() (*big.Int, error) {
	if !r.done {
		return nil, errors.Wrap(evsim.ErrNotSet, "collector result")
	}
	return new(big.Int).Set(r.result), nil
}

// Sign returns the most significant bit.
//
func (r *Collector) Sign() (int, error) {
	if !r.done {
		return 0, errors.Wrap(evsim.ErrNotSet, "collector sign")
	}
	return r.sign, nil
}

// Int returns the two's-complement value of the lines.
//
func (r *Collector) Int() (*big.Int, error) {
	if !r.done {
		return nil, errors.Wrap(evsim.ErrNotSet, "collector value")
	}
	return bitvec.Signed(r.result, r.sign, len(r.lines)), nil
}

// Probe calls f with the line's name and value when line l is set. If the line
// is already set, f is called immediately.
//
func Probe(c *evsim.Circuit, l evsim.Line, f func(name string, v int)) {
	p := evsim.ObserverFunc(func(c *evsim.Circuit) error {
		f(c.Name(l), c.Get(l))
		return nil
	})
	if c.IsSet(l) {
		_ = p.Update(c)
	}
	c.Observe(l, p)
}

// LogProbe logs the value of each of the given lines at debug level as soon as
// it is set.
//
func LogProbe(c *evsim.Circuit, logger *slog.Logger, lines ...evsim.Line) {
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	id := c.ID().String()
	for _, l := range lines {
		Probe(c, l, func(name string, v int) {
			logger.Debug("line set",
				slog.String("circuit", id),
				slog.String("line", name),
				slog.Int("value", v),
			)
		})
	}
}

// Input creates a function based input. The output is set to f() when the
// part is mounted.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() int) evsim.NewPartFn {
	p := &evsim.PartSpec{
		Name:    "Input",
		Inputs:  nil,
		Outputs: []string{pOut},
		Mount: func(s *evsim.Socket) error {
			return s.Circuit().Set(s.Pin(pOut), f())
		},
	}
	return p.NewPart
}

// Output creates an output or probe. The fn function is called with the input
// value once it is set.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(int)) evsim.NewPartFn {
	p := &evsim.PartSpec{
		Name:    "Output",
		Inputs:  []string{pIn},
		Outputs: nil,
		Mount: func(s *evsim.Socket) error {
			Probe(s.Circuit(), s.Pin(pIn), func(_ string, v int) { f(v) })
			return nil
		},
	}
	return p.NewPart
}

// InputN creates an input bus of the given bits size. The bus is set to the
// two's-complement encoding of f() when the part is mounted.
//
//	Outputs: out[bits]
//
func InputN(bits int, f func() *big.Int) evsim.NewPartFn {
	return (&evsim.PartSpec{
		Name:    "Input" + strconv.Itoa(bits),
		Inputs:  nil,
		Outputs: bus(bits, pOut),
		Mount: func(s *evsim.Socket) error {
			return SetBits(s.Circuit(), s.Bus(pOut, bits), bitvec.Encode(f(), bits))
		}}).NewPart
}

// OutputN creates an output bus of the given bits size. f is called once with
// the signed value of the bus when all of its lines are set.
//
//	Inputs: in[bits]
//
func OutputN(bits int, f func(*big.Int)) evsim.NewPartFn {
	return (&evsim.PartSpec{
		Name:    "Output" + strconv.Itoa(bits),
		Inputs:  bus(bits, pIn),
		Outputs: nil,
		Mount: func(s *evsim.Socket) error {
			r, err := NewCollector(s.Circuit(), s.Bus(pIn, bits))
			if err != nil {
				return err
			}
			if r.Done() {
				v, _ := r.Int()
				f(v)
				return nil
			}
			r.OnSettled = func(v *big.Int) error {
				f(v)
				return nil
			}
			return nil
		}}).NewPart
}
