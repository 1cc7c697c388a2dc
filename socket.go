// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import "github.com/pkg/errors"

// A Socket maps a part's pin names to lines in a circuit.
//
type Socket struct {
	m map[string]Line
	c *Circuit
}

func newSocket(c *Circuit) *Socket {
	return &Socket{
		m: map[string]Line{"false": False, "true": True},
		c: c,
	}
}

// Circuit returns the circuit the socket is bound to.
//
func (s *Socket) Circuit() *Circuit { return s.c }

// Pin returns the line connected to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) Line {
	l, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return l
}

// Lookup returns the line connected to the given pin name, if any.
//
func (s *Socket) Lookup(name string) (Line, bool) {
	l, ok := s.m[name]
	return l, ok
}

// PinOrNew returns the line connected to the given pin name.
// If no such pin exists, a new line is allocated and named after the pin.
//
func (s *Socket) PinOrNew(name string) Line {
	l, ok := s.m[name]
	if !ok {
		l = s.c.NewLine()
		s.c.SetName(l, name)
		s.m[name] = l
	}
	return l
}

// Bus returns the lines connected to the given bus name, in bus order.
// This function panics if the bus does not exist or if its size is not bits.
//
func (s *Socket) Bus(name string, bits int) []Line {
	out := make([]Line, bits)
	for i := range out {
		l, ok := s.m[BusPinName(name, i)]
		if !ok {
			panic("bus " + name + " has no pin " + BusPinName(name, i))
		}
		out[i] = l
	}
	return out
}

// Mount mounts the given part into the socket. The part's pins are connected to
// the socket's lines according to p.Conns, allocating new lines for unknown
// wire names. Unconnected input pins are connected to False, unconnected
// output pins to a private line.
//
func (s *Socket) Mount(p Part) error {
	sub := newSocket(s.c)
	for _, cn := range p.Conns {
		if l, ok := sub.m[cn.Pin]; ok {
			// an output pin fanned out to several wires.
			if err := s.alias(cn.Wire, l); err != nil {
				return errors.Wrap(err, p.Name+"."+cn.Pin)
			}
			continue
		}
		sub.m[cn.Pin] = s.PinOrNew(cn.Wire)
	}
	for _, n := range p.Inputs {
		if _, ok := sub.m[n]; !ok {
			sub.m[n] = False
		}
	}
	for _, n := range p.Outputs {
		if _, ok := sub.m[n]; !ok {
			sub.m[n] = s.c.NewLine()
		}
	}
	if err := p.Mount(sub); err != nil {
		return errors.Wrap(err, "mount "+p.Name)
	}
	return nil
}

// alias connects wire name to line l, driven by an output pin fanned out to
// several wires. If the wire already has its own line (read by a part mounted
// earlier or bound to an output of the host chip), that line is undriven and
// follows l through a buffer.
//
func (s *Socket) alias(name string, l Line) error {
	o, ok := s.m[name]
	switch {
	case !ok:
		s.m[name] = l
	case o == l:
	case o == False || o == True:
		return errors.New("wire " + name + " connected to constant")
	case s.c.IsSet(l):
		return s.c.Set(o, s.c.Get(l))
	default:
		s.c.Observe(l, ObserverFunc(func(c *Circuit) error {
			return c.Set(o, c.Get(l))
		}))
	}
	return nil
}
