// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/pkg/errors"
)

// A MountFn wires a part into socket s. MountFn's should query the socket for
// the lines connected to their pins and subscribe observers to them.
//
// For example, an inverter can be defined like this:
//
//	not := &PartSpec{
//		Name:    "Not",
//		Inputs:  IO("in"),
//		Outputs: IO("out"),
//		Mount: func(s *Socket) error {
//			in, out := s.Pin("in"), s.Pin("out")
//			s.Circuit().Observe(in, ObserverFunc(func(c *Circuit) error {
//				return c.Set(out, 1-c.Get(in))
//			}))
//			return nil
//		}}
//
// Input lines may already be set when a part is mounted (for instance when
// wired to True or False); parts must check their inputs once at mount time in
// that case.
//
type MountFn func(s *Socket) error

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec, then using its NewPart
// method as a NewPartFn when building chips:
//
//	var notGate = notSpec.NewPart
//
//	c, _ := Chip("dummy", "a, b", "c, d",
//		notGate("in=a, out=c"),
//		notGate("in=b, out=d"),
//	)
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	// Use the IO() function to expand an input description like
	// "a, b, bus[2]" to []string{"a", "b", "bus[0]", "bus[1]"}
	Inputs []string
	// Output pin names. Must be distinct pin names.
	Outputs []string
	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	cs, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{p, cs}
}

func (p *PartSpec) pinType(name string) int {
	for _, n := range p.Inputs {
		if n == name {
			return typeInput
		}
	}
	for _, n := range p.Outputs {
		if n == name {
			return typeOutput
		}
	}
	return typeUnknown
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

const (
	typeUnknown = iota
	typeInput
	typeOutput
)

type chip struct {
	PartSpec
	parts []Part
}

func (c *chip) mount(s *Socket) error {
	for _, p := range c.parts {
		if err := s.Mount(p); err != nil {
			return errors.Wrap(err, c.Name)
		}
	}
	return nil
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip. Any other wire name used in the parts' connections
// is internal to the chip.
//
// A full adder could be created like this:
//
//	fa, err := Chip("FullAdder", "a, b, cin", "s, cout",
//		hwlib.HalfAdder("a=a, b=b, s=s0, c=c0"),
//		hwlib.HalfAdder("a=s0, b=cin, s=s, c=c1"),
//		hwlib.Or("a=c0, b=c1, out=cout"),
//	)
//
// Chip checks that every wire has exactly one driver: either a chip input, a
// constant (true or false), or a single part output, and that every chip
// output is driven.
//
// The returned value is a NewPartFn that can be used to compose the new part
// with others into other chips.
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	ins, err := parseIO(inputs)
	if err != nil {
		return nil, errors.Wrap(err, name+": invalid input specification")
	}
	outs, err := parseIO(outputs)
	if err != nil {
		return nil, errors.Wrap(err, name+": invalid output specification")
	}
	c, err := newChip(name, ins, outs, parts, true)
	if err != nil {
		return nil, err
	}
	return c.PartSpec.NewPart, nil
}

// newChip checks the wiring of parts and returns the resulting chip. If
// closed is false, wires read by parts but not driven by any of them are
// accepted: they are the primary inputs of a top level circuit.
//
func newChip(name string, ins, outs []string, parts []Part, closed bool) (*chip, error) {
	isIn := make(map[string]bool, len(ins))
	for _, n := range ins {
		isIn[n] = true
	}
	drivers := make(map[string]string) // wire -> driving part pin
	var reads []Connection

	for _, p := range parts {
		seen := make(map[string]bool, len(p.Conns))
		for _, cn := range p.Conns {
			pn := p.Name + "." + cn.Pin
			switch p.pinType(cn.Pin) {
			case typeInput:
				if seen[cn.Pin] {
					return nil, errors.New(name + ": input pin " + pn + " connected to more than one wire")
				}
				reads = append(reads, Connection{pn, cn.Wire})
			case typeOutput:
				switch {
				case cn.Wire == "true" || cn.Wire == "false":
					return nil, errors.New(name + ": output pin " + pn + " connected to constant " + cn.Wire)
				case isIn[cn.Wire]:
					return nil, errors.New(name + ": output pin " + pn + " connected to chip input " + cn.Wire)
				case drivers[cn.Wire] != "":
					return nil, errors.New(name + ": wire " + cn.Wire + " driven by both " + drivers[cn.Wire] + " and " + pn)
				}
				drivers[cn.Wire] = pn
			default:
				return nil, errors.New(name + ": invalid pin name " + cn.Pin + " for part " + p.Name)
			}
			seen[cn.Pin] = true
		}
	}
	for _, r := range reads {
		if closed && r.Wire != "true" && r.Wire != "false" && !isIn[r.Wire] && drivers[r.Wire] == "" {
			return nil, errors.New(name + ": pin " + r.Pin + " connected to " + r.Wire + " which is not driven by any output")
		}
	}
	for _, o := range outs {
		if drivers[o] == "" {
			return nil, errors.New(name + ": output " + o + " not connected to any part output")
		}
	}

	c := &chip{
		PartSpec{
			Name:    name,
			Inputs:  ins,
			Outputs: outs,
		},
		parts,
	}
	c.PartSpec.Mount = c.mount
	return c, nil
}

// Mount mounts the given parts into circuit c and returns the top level socket,
// which can be used to look up lines by wire name.
//
// The parts are checked like the parts of a chip, except that wires which are
// not driven by any part are accepted as the circuit's primary inputs. They
// must be set by the caller.
//
func Mount(c *Circuit, parts ...Part) (*Socket, error) {
	wrap, err := newChip("CIRCUIT", nil, nil, parts, false)
	if err != nil {
		return nil, err
	}
	s := newSocket(c)
	if err = wrap.mount(s); err != nil {
		return nil, err
	}
	return s, nil
}
