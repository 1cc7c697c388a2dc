// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/evsim"
)

const pSel = "sel"

// comb is a combinational component with any number of inputs and outputs.
// Like a Gate, it fires once, when all of its inputs are set.
type comb struct {
	ins, outs []evsim.Line
	fn        func(in []int) []int
	fired     bool
}

func newComb(c *evsim.Circuit, ins, outs []evsim.Line, fn func(in []int) []int) error {
	cb := &comb{ins: ins, outs: outs, fn: fn}
	for _, l := range ins {
		c.Observe(l, cb)
	}
	return cb.Update(c)
}

func (cb *comb) Update(c *evsim.Circuit) error {
	if cb.fired {
		return nil
	}
	in := make([]int, len(cb.ins))
	for i, l := range cb.ins {
		if !c.IsSet(l) {
			return nil
		}
		in[i] = c.Get(l)
	}
	cb.fired = true
	for i, v := range cb.fn(in) {
		if err := c.Set(cb.outs[i], v); err != nil {
			return err
		}
	}
	return nil
}

// Func returns a NewPartFn for a custom combinational part. f receives the
// input values in the order of inputs and must return the output values in the
// order of outputs. It is called once, when all inputs are set.
//
func Func(name string, inputs, outputs []string, f func(in []int) []int) evsim.NewPartFn {
	return (&evsim.PartSpec{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		Mount: func(s *evsim.Socket) error {
			ins := make([]evsim.Line, len(inputs))
			for i, n := range inputs {
				ins[i] = s.Pin(n)
			}
			outs := make([]evsim.Line, len(outputs))
			for i, n := range outputs {
				outs[i] = s.Pin(n)
			}
			return newComb(s.Circuit(), ins, outs, f)
		}}).NewPart
}

var (
	not = Func("NOT", []string{pIn}, []string{pOut}, func(in []int) []int {
		return []int{1 ^ in[0]}
	})
	mux = Func("MUX", []string{pA, pB, pSel}, []string{pOut}, func(in []int) []int {
		if in[2] == 1 {
			return []int{in[1]}
		}
		return []int{in[0]}
	})
	dmux = Func("DMUX", []string{pIn, pSel}, []string{pA, pB}, func(in []int) []int {
		if in[1] == 1 {
			return []int{0, in[0]}
		}
		return []int{in[0], 0}
	})
)

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) evsim.Part { return not(w) }

// Mux returns a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(w string) evsim.Part { return mux(w) }

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(w string) evsim.Part { return dmux(w) }
