// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import "github.com/pkg/errors"

// Errors returned by the simulator. They are usually wrapped with additional
// context; use errors.Is or errors.Cause to test for them.
//
var (
	// ErrInvalidValue is returned when setting a line to anything other than 0 or 1.
	ErrInvalidValue = errors.New("invalid signal value")
	// ErrAlreadySet is returned when setting a line that has already been set.
	ErrAlreadySet = errors.New("line already set")
	// ErrNotSet is returned when reading a value that has not settled yet.
	ErrNotSet = errors.New("value not set")
)
