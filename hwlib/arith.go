// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// ErrInvalidWidth is returned when building an adder with less than one bit.
//
var ErrInvalidWidth = errors.New("invalid adder width")

// NewHalfAdder wires a half adder into circuit c.
//
//	sum = a ^ b
//	carry = a & b
//
func NewHalfAdder(c *evsim.Circuit, a, b, sum, carry evsim.Line) error {
	if _, err := NewGate(c, OpXor, a, b, sum); err != nil {
		return err
	}
	_, err := NewGate(c, OpAnd, a, b, carry)
	return err
}

// NewFullAdder wires a full adder made of two half adders and an OR gate into
// circuit c.
//
//	sum = lsb(a + b + cin)
//	cout = msb(a + b + cin)
//
func NewFullAdder(c *evsim.Circuit, a, b, cin, sum, cout evsim.Line) error {
	s0, c0, c1 := c.NewLine(), c.NewLine(), c.NewLine()
	if err := NewHalfAdder(c, a, b, s0, c0); err != nil {
		return err
	}
	if err := NewHalfAdder(c, s0, cin, sum, c1); err != nil {
		return err
	}
	_, err := NewGate(c, OpOr, c0, c1, cout)
	return err
}

var hAdder = &evsim.PartSpec{
	Name:    "HalfAdder",
	Inputs:  []string{pA, pB},
	Outputs: []string{"s", "c"},
	Mount: func(s *evsim.Socket) error {
		return NewHalfAdder(s.Circuit(), s.Pin(pA), s.Pin(pB), s.Pin("s"), s.Pin("c"))
	}}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(c string) evsim.Part {
	return hAdder.NewPart(c)
}

var adder = &evsim.PartSpec{
	Name:    "FullAdder",
	Inputs:  []string{pA, pB, "cin"},
	Outputs: []string{"s", "cout"},
	Mount: func(s *evsim.Socket) error {
		return NewFullAdder(s.Circuit(), s.Pin(pA), s.Pin(pB), s.Pin("cin"), s.Pin("s"), s.Pin("cout"))
	}}

// FullAdder returns a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(c string) evsim.Part {
	return adder.NewPart(c)
}

// Adder holds the lines of an n-bit ripple-carry adder. All slices are
// ordered from the least significant bit.
//
type Adder struct {
	A     []evsim.Line // first operand
	B     []evsim.Line // second operand
	Sum   []evsim.Line
	Carry []evsim.Line // n+1 carry lines. Carry[0] is set to 0, Carry[n] is the final carry out.
}

// Bits returns the width of the adder.
//
func (a *Adder) Bits() int { return len(a.Sum) }

// BuildAdder builds an n-bit ripple-carry adder in circuit c: n full adders
// where the carry out of adder i is the carry in of adder i+1. The initial
// carry in is set to 0 before any adder is wired.
//
// The final carry out is wired but not observed: the sum wraps around on
// overflow, as in fixed width two's-complement arithmetic.
//
func BuildAdder(c *evsim.Circuit, n int) (*Adder, error) {
	if n < 1 {
		return nil, errors.Wrapf(ErrInvalidWidth, "%d bits", n)
	}
	a := &Adder{
		A:   c.NewLines(n),
		B:   c.NewLines(n),
		Sum: c.NewLines(n),
	}
	for i := 0; i < n; i++ {
		c.SetName(a.A[i], evsim.BusPinName("a", i))
		c.SetName(a.B[i], evsim.BusPinName("b", i))
		c.SetName(a.Sum[i], evsim.BusPinName("out", i))
	}
	a.Carry = c.NewLines(n + 1)
	for i, l := range a.Carry {
		c.SetName(l, evsim.BusPinName("carry", i))
	}
	if err := c.Set(a.Carry[0], 0); err != nil {
		return nil, err
	}
	if err := rippleCarry(c, a.A, a.B, a.Sum, a.Carry); err != nil {
		return nil, err
	}
	return a, nil
}

func rippleCarry(c *evsim.Circuit, a, b, sum, carry []evsim.Line) error {
	for i := range sum {
		if err := NewFullAdder(c, a[i], b[i], carry[i], sum[i], carry[i+1]); err != nil {
			return errors.Wrap(err, "full adder "+strconv.Itoa(i))
		}
	}
	return nil
}

// AdderN returns a N-bits ripple-carry adder.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//	Function: out = (a + b) mod 2^bits
//	          c = carry out
//
func AdderN(bits int) evsim.NewPartFn {
	adderN := &evsim.PartSpec{
		Name:    "Adder" + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: append(bus(bits, pOut), "c"),
		Mount: func(s *evsim.Socket) error {
			c := s.Circuit()
			carry := make([]evsim.Line, bits+1)
			carry[0] = evsim.False
			for i := 1; i < bits; i++ {
				carry[i] = c.NewLine()
			}
			carry[bits] = s.Pin("c")
			return rippleCarry(c, s.Bus(pA, bits), s.Bus(pB, bits), s.Bus(pOut, bits), carry)
		}}
	return adderN.NewPart
}
