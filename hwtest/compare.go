// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/evsim"
)

// maxExhaustive is the maximum number of inputs for which all input
// combinations are tested. Above that, parts are tested with all zeroes, all
// ones and 1<<maxExhaustive random inputs.
const maxExhaustive = 12

var seed = flag.Int64("hwtest.seed", 0, "seed for sampled input combinations (0: from the clock)")

func connString(prefix string, pins []string) string {
	var b strings.Builder
	for _, n := range pins {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(prefix)
		b.WriteString(n)
	}
	return b.String()
}

func join(a, b string) string {
	if a == "" || b == "" {
		return a + b
	}
	return a + "," + b
}

// inputSets calls f with every input combination for n inputs, or with a random
// sample if n is too large. The sample seed is logged so that a failing run can
// be replayed with -hwtest.seed. The slice passed to f is reused between calls.
func inputSets(t testing.TB, n int, f func(in []int) bool) {
	in := make([]int, n)
	if n <= maxExhaustive {
		for i := 0; i < 1<<uint(n); i++ {
			for bit := range in {
				in[bit] = (i >> uint(bit)) & 1
			}
			if !f(in) {
				return
			}
		}
		return
	}
	sd := *seed
	if sd == 0 {
		sd = time.Now().UnixNano()
	}
	t.Logf("%d inputs: sampling with -hwtest.seed=%d", n, sd)
	rnd := rand.New(rand.NewSource(sd))
	if !f(in) {
		return
	}
	for i := range in {
		in[i] = 1
	}
	if !f(in) {
		return
	}
	for i := 0; i < 1<<maxExhaustive; i++ {
		for bit := range in {
			in[bit] = rnd.Intn(2)
		}
		if !f(in) {
			return
		}
	}
}

func pinValues(pins []string, v []int) string {
	var b strings.Builder
	for i, n := range pins {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", n, v[i])
	}
	return b.String()
}

// eval mounts parts in a fresh circuit, drives the wires named prefix+input
// and returns the socket after propagation.
func eval(inputs []string, in []int, parts ...evsim.Part) (*evsim.Socket, error) {
	c := evsim.NewCircuit()
	s, err := evsim.Mount(c, parts...)
	if err != nil {
		return nil, err
	}
	for i, n := range inputs {
		l, ok := s.Lookup(n)
		if !ok {
			// input pin not used by any part.
			continue
		}
		if err = c.Set(l, in[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func outputs(s *evsim.Socket, prefix string, pins []string) ([]int, error) {
	out := make([]int, len(pins))
	for i, n := range pins {
		v, err := s.Circuit().Value(s.Pin(prefix + n))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TruthTable checks that part computes the same outputs as f for every input
// combination. f receives input values in the order of the part's Inputs and
// must return output values in the order of its Outputs.
//
// Each combination is evaluated in a fresh circuit; outputs that do not settle
// once all inputs are driven are reported as errors.
//
func TruthTable(t testing.TB, part evsim.NewPartFn, f func(in []int) []int) {
	t.Helper()

	spec := part("").PartSpec
	p := part(join(connString("", spec.Inputs), connString("o_", spec.Outputs)))
	inputSets(t, len(spec.Inputs), func(in []int) bool {
		s, err := eval(spec.Inputs, in, p)
		if err != nil {
			t.Fatalf("%s(%s): %+v", spec.Name, pinValues(spec.Inputs, in), err)
		}
		got, err := outputs(s, "o_", spec.Outputs)
		if err != nil {
			t.Fatalf("%s(%s): %v", spec.Name, pinValues(spec.Inputs, in), err)
		}
		want := f(in)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s(%s): expected %s, got %s", spec.Name,
					pinValues(spec.Inputs, in), pinValues(spec.Outputs, want), pinValues(spec.Outputs, got))
				return false
			}
		}
		return true
	})
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface.
//
func ComparePart(t testing.TB, part1 evsim.NewPartFn, part2 evsim.NewPartFn) {
	t.Helper()

	ps1, ps2 := part1("").PartSpec, part2("").PartSpec

	// compare specs
	if len(ps1.Inputs) != len(ps2.Inputs) {
		t.Fatal("len(ps1.Inputs) != len(ps2.Inputs)")
	}
	if len(ps1.Outputs) != len(ps2.Outputs) {
		t.Fatal("len(ps1.Outputs) != len(ps2.Outputs)")
	}
	for i := range ps1.Inputs {
		if ps1.Inputs[i] != ps2.Inputs[i] {
			t.Fatalf("ps1.Inputs[i] = %q != ps2.Inputs[i] = %q", ps1.Inputs[i], ps2.Inputs[i])
		}
	}
	for i := range ps1.Outputs {
		if ps1.Outputs[i] != ps2.Outputs[i] {
			t.Fatalf("ps1.Outputs[i] = %q != ps2.Outputs[i] = %q", ps1.Outputs[i], ps2.Outputs[i])
		}
	}

	ins := connString("", ps1.Inputs)
	p1 := part1(join(ins, connString("p1_", ps1.Outputs)))
	p2 := part2(join(ins, connString("p2_", ps2.Outputs)))

	start := time.Now()
	count := 0
	inputSets(t, len(ps1.Inputs), func(in []int) bool {
		count++
		s, err := eval(ps1.Inputs, in, p1, p2)
		if err != nil {
			t.Fatalf("%s(%s): %+v", ps1.Name, pinValues(ps1.Inputs, in), err)
		}
		o1, err := outputs(s, "p1_", ps1.Outputs)
		if err != nil {
			t.Fatalf("%s(%s): %v", ps1.Name, pinValues(ps1.Inputs, in), err)
		}
		o2, err := outputs(s, "p2_", ps2.Outputs)
		if err != nil {
			t.Fatalf("%s(%s): %v", ps2.Name, pinValues(ps2.Inputs, in), err)
		}
		for i := range o1 {
			if o1[i] != o2[i] {
				t.Errorf("\nExpected %s => %s\nGot %s", pinValues(ps1.Inputs, in),
					pinValues(ps1.Outputs, o1), pinValues(ps2.Outputs, o2))
				return false
			}
		}
		return true
	})
	t.Logf("%s vs. %s: %d evaluations in %v", ps1.Name, ps2.Name, count, time.Since(start))
}
