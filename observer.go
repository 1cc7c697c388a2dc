// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// An Observer reacts to a line being set.
//
// Update is called synchronously from Circuit.Set, after the new value has been
// recorded. Observers usually check that all the lines they depend on are set
// before doing any work: being notified for one input while another one is
// still unset is normal and must not be treated as an error.
//
// Any error returned by Update aborts the propagation cascade and is returned
// by the Set call that started it.
//
type Observer interface {
	Update(c *Circuit) error
}

// ObserverFunc adapts an ordinary function to the Observer interface.
//
type ObserverFunc func(c *Circuit) error

// Update calls f(c).
//
func (f ObserverFunc) Update(c *Circuit) error { return f(c) }
