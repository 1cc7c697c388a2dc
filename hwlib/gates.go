// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable parts for evsim.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/evsim"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pOut = "out"
)

// make a bus name
func bus(bits int, names ...string) []string {
	b := make([]string, len(names)*bits)
	for i, n := range names {
		for j := 0; j < bits; j++ {
			b[i*bits+j] = evsim.BusPinName(n, j)
		}
	}
	return b
}

// An Op is a two input boolean function.
//
type Op int

// Supported gate operations.
//
const (
	OpAnd Op = iota
	OpOr
	OpXor
	OpNand
	OpNor
	OpXnor
)

var opNames = [...]string{"AND", "OR", "XOR", "NAND", "NOR", "XNOR"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
	return opNames[op]
}

// Apply returns the result of op for bits a and b.
//
func (op Op) Apply(a, b int) int {
	switch op {
	case OpAnd:
		return a & b
	case OpOr:
		return a | b
	case OpXor:
		return a ^ b
	case OpNand:
		return 1 ^ (a & b)
	case OpNor:
		return 1 ^ (a | b)
	case OpXnor:
		return 1 ^ a ^ b
	}
	panic("unknown gate operation " + op.String())
}

// A Gate is a two input logic gate.
//
// A Gate sets its output line once both of its inputs are set, and only once:
// it is notified for each of its inputs, and the second notification is
// ignored.
//
type Gate struct {
	Op    Op
	A, B  evsim.Line
	Out   evsim.Line
	fired bool
}

// NewGate wires a new gate into circuit c. If both inputs are already set, the
// output is set immediately and any error from the resulting cascade is
// returned.
//
func NewGate(c *evsim.Circuit, op Op, a, b, out evsim.Line) (*Gate, error) {
	g := &Gate{Op: op, A: a, B: b, Out: out}
	c.Observe(a, g)
	c.Observe(b, g)
	if err := g.Update(c); err != nil {
		return nil, err
	}
	return g, nil
}

// Update implements evsim.Observer.
//
func (g *Gate) Update(c *evsim.Circuit) error {
	if g.fired || !c.IsSet(g.A) || !c.IsSet(g.B) {
		return nil
	}
	g.fired = true
	return c.Set(g.Out, g.Op.Apply(c.Get(g.A), c.Get(g.B)))
}

// Fired returns true once the gate has set its output.
//
func (g *Gate) Fired() bool { return g.fired }

func (op Op) mount(s *evsim.Socket) error {
	_, err := NewGate(s.Circuit(), op, s.Pin(pA), s.Pin(pB), s.Pin(pOut))
	return err
}

func newGate(op Op) *evsim.PartSpec {
	return &evsim.PartSpec{
		Name:    op.String(),
		Inputs:  gateIn,
		Outputs: gateOut,
		Mount:   op.mount,
	}
}

var (
	gateIn  = []string{pA, pB}
	gateOut = []string{pOut}

	and  = newGate(OpAnd)
	nand = newGate(OpNand)
	or   = newGate(OpOr)
	nor  = newGate(OpNor)
	xor  = newGate(OpXor)
	xnor = newGate(OpXnor)
)

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a & b
//
func And(w string) evsim.Part { return and.NewPart(w) }

// Nand returns a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a & b)
//
func Nand(w string) evsim.Part { return nand.NewPart(w) }

// Or returns a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a | b
//
func Or(w string) evsim.Part { return or.NewPart(w) }

// Nor returns a NOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a | b)
//
func Nor(w string) evsim.Part { return nor.NewPart(w) }

// Xor returns a XOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a ^ b
//
func Xor(w string) evsim.Part { return xor.NewPart(w) }

// Xnor returns a XNOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a ^ b)
//
func Xnor(w string) evsim.Part { return xnor.NewPart(w) }

// GateOf returns a NewPartFn for a gate with the given operation.
//
func GateOf(op Op) evsim.NewPartFn { return newGate(op).NewPart }
