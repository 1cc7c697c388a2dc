// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// A Line is a handle to a single bit signal line in a Circuit. Line values are
// only meaningful for the circuit that allocated them.
//
type Line int

// Constant lines. Every circuit is created with these two lines already set.
//
const (
	False Line = iota
	True
	cstCount
)

type line struct {
	set  bool
	v    int
	obs  []Observer
	name string
}

// Stats holds event counters for a circuit.
//
type Stats struct {
	Lines         int // allocated lines, including constants
	Sets          int // successful calls to Set
	Notifications int // observer notifications
}

// Circuit is an arena of signal lines for a single evaluation.
//
// A Circuit is not safe for concurrent use. Independent evaluations should each
// use their own Circuit.
//
type Circuit struct {
	id    uuid.UUID
	lines []line
	stats Stats
}

// NewCircuit returns a new empty circuit, holding only the constant lines
// False and True.
//
func NewCircuit() *Circuit {
	c := &Circuit{id: uuid.New(), lines: make([]line, cstCount, 64)}
	c.lines[False] = line{set: true, v: 0, name: "false"}
	c.lines[True] = line{set: true, v: 1, name: "true"}
	return c
}

// ID returns the unique identifier of the circuit.
//
func (c *Circuit) ID() uuid.UUID { return c.id }

// NewLine allocates a new unset line.
//
func (c *Circuit) NewLine() Line {
	n := len(c.lines)
	c.lines = append(c.lines, line{})
	return Line(n)
}

// NewLines allocates n new unset lines.
//
func (c *Circuit) NewLines(n int) []Line {
	ls := make([]Line, n)
	for i := range ls {
		ls[i] = c.NewLine()
	}
	return ls
}

// Lines returns the number of lines allocated in the circuit.
//
func (c *Circuit) Lines() int { return len(c.lines) }

// SetName attaches a name to a line. Names are only used for diagnostics.
//
func (c *Circuit) SetName(l Line, name string) {
	c.lines[l].name = name
}

// Name returns the name of line l, or "#" followed by its handle if it has no
// name.
//
func (c *Circuit) Name(l Line) string {
	if n := c.lines[l].name; n != "" {
		return n
	}
	return "#" + strconv.Itoa(int(l))
}

// Observe subscribes o to line l. Observers are notified in subscription order.
// Subscribing the same observer twice results in two notifications.
//
func (c *Circuit) Observe(l Line, o Observer) {
	c.lines[l].obs = append(c.lines[l].obs, o)
}

// Set sets the value of line l to v, then notifies all of its observers.
//
// v must be 0 or 1. A line can be set only once: setting it again, with any
// value, fails with ErrAlreadySet and notifies no one.
//
// Set returns once every reaction it triggered, directly or indirectly, has
// completed. If an observer fails, the cascade stops there and its error is
// returned.
//
func (c *Circuit) Set(l Line, v int) error {
	if v != 0 && v != 1 {
		return errors.Wrapf(ErrInvalidValue, "set %s to %d", c.Name(l), v)
	}
	ln := &c.lines[l]
	if ln.set {
		return errors.Wrapf(ErrAlreadySet, "set %s to %d (is %d)", c.Name(l), v, ln.v)
	}
	ln.set, ln.v = true, v
	c.stats.Sets++
	// observers may allocate lines, keep our own copy of the list.
	obs := ln.obs
	for _, o := range obs {
		c.stats.Notifications++
		if err := o.Update(c); err != nil {
			return err
		}
	}
	return nil
}

// IsSet returns true if line l has been set.
//
func (c *Circuit) IsSet(l Line) bool {
	return c.lines[l].set
}

// Value returns the value of line l. It fails with ErrNotSet if the line has
// not been set.
//
func (c *Circuit) Value(l Line) (int, error) {
	ln := &c.lines[l]
	if !ln.set {
		return 0, errors.Wrap(ErrNotSet, c.Name(l))
	}
	return ln.v, nil
}

// Get returns the value of line l, or 0 if it has not been set. It is meant to
// be used by observers that have already checked IsSet.
//
func (c *Circuit) Get(l Line) int {
	return c.lines[l].v
}

// Stats returns the event counters of the circuit.
//
func (c *Circuit) Stats() Stats {
	s := c.stats
	s.Lines = len(c.lines)
	return s
}
