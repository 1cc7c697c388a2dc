/*
Package evsim provides an event driven simulator for combinational logic.

A Circuit is an arena of single bit signal lines. Lines start unset and can be
set exactly once. Each time a line is set, every Observer subscribed to it is
notified, synchronously and in subscription order. Observers (usually gates)
react by setting other lines, so that setting a single input line triggers a
depth-first propagation cascade which has fully unwound by the time Set
returns.

Components are described by a PartSpec and composed into larger components
with Chip, using a small connection language:

	halfAdder, err := evsim.Chip("HalfAdder", "a, b", "s, c",
		hwlib.Xor("a=a, b=b, out=s"),
		hwlib.And("a=a, b=b, out=c"),
	)

The hwlib package provides gates and adders, the adder package uses them to
add two's-complement integers of arbitrary width.

A Circuit represents a single evaluation: lines are never reset. In order to
evaluate the same design with different inputs, build a new Circuit.
*/
package evsim
