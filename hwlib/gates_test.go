package hwlib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hw "github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
)

func Test_gate_builtin(t *testing.T) {
	tr, err := hw.Chip("TRUE", "a", "out",
		hl.And("a=true, b=true, out=out"),
	)
	require.NoError(t, err)
	fa, err := hw.Chip("FALSE", "a", "out",
		hl.Or("a=false, b=false, out=out"),
	)
	require.NoError(t, err)

	td := []struct {
		name   string
		gate   hw.NewPartFn
		result [][]int // outputs for in = 00, 10, 01, 11 (a is bit 0)
	}{
		{"NOT", hl.Not, [][]int{{1, 0}}},
		{"AND", hl.And, [][]int{{0, 0, 0, 1}}},
		{"NAND", hl.Nand, [][]int{{1, 1, 1, 0}}},
		{"OR", hl.Or, [][]int{{0, 1, 1, 1}}},
		{"NOR", hl.Nor, [][]int{{1, 0, 0, 0}}},
		{"XOR", hl.Xor, [][]int{{0, 1, 1, 0}}},
		{"XNOR", hl.Xnor, [][]int{{1, 0, 0, 1}}},
		{"TRUE", tr, [][]int{{1, 1}}},
		{"FALSE", fa, [][]int{{0, 0}}},
		// in = a, b, sel
		{"MUX", hl.Mux, [][]int{{0, 1, 0, 1, 0, 0, 1, 1}}},
		// in = in, sel
		{"DMUX", hl.DMux, [][]int{{0, 1, 0, 0}, {0, 0, 0, 1}}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			hwtest.TruthTable(t, d.gate, func(in []int) []int {
				idx := 0
				for i, v := range in {
					idx |= v << uint(i)
				}
				out := make([]int, len(d.result))
				for o := range out {
					out[o] = d.result[o][idx]
				}
				return out
			})
		})
	}
}

func Test_gate_custom(t *testing.T) {
	and, err := hw.Chip("AND", "a, b", "out",
		hl.Nand("a=a, b=b, out=nand"),
		hl.Nand("a=nand, b=nand, out=out"),
	)
	require.NoError(t, err)
	xor, err := hw.Chip("XOR", "a, b", "out",
		hl.Nand("a=a, b=b, out=nandAB"),
		hl.Nand("a=a, b=nandAB, out=w0"),
		hl.Nand("a=b, b=nandAB, out=w1"),
		hl.Nand("a=w0, b=w1, out=out"),
	)
	require.NoError(t, err)
	mux, err := hw.Chip("MUX", "a, b, sel", "out",
		hl.Not("in=sel, out=notSel"),
		hl.And("a=a, b=notSel, out=w0"),
		hl.And("a=b, b=sel, out=w1"),
		hl.Or("a=w0, b=w1, out=out"),
	)
	require.NoError(t, err)
	dmux, err := hw.Chip("DMUX", "in, sel", "a, b",
		hl.Not("in=sel, out=notSel"),
		hl.And("a=in, b=notSel, out=a"),
		hl.And("a=in, b=sel, out=b"),
	)
	require.NoError(t, err)

	td := []struct {
		name    string
		builtin hw.NewPartFn
		custom  hw.NewPartFn
	}{
		{"AND", hl.And, and},
		{"XOR", hl.Xor, xor},
		{"MUX", hl.Mux, mux},
		{"DMUX", hl.DMux, dmux},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			hwtest.ComparePart(t, d.builtin, d.custom)
		})
	}
}

func TestOp(t *testing.T) {
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			assert.Equal(t, x&y, hl.OpAnd.Apply(x, y), "AND(%d, %d)", x, y)
			assert.Equal(t, x|y, hl.OpOr.Apply(x, y), "OR(%d, %d)", x, y)
			assert.Equal(t, x^y, hl.OpXor.Apply(x, y), "XOR(%d, %d)", x, y)
			assert.Equal(t, 1-(x&y), hl.OpNand.Apply(x, y), "NAND(%d, %d)", x, y)
			assert.Equal(t, 1-(x|y), hl.OpNor.Apply(x, y), "NOR(%d, %d)", x, y)
			assert.Equal(t, 1-(x^y), hl.OpXnor.Apply(x, y), "XNOR(%d, %d)", x, y)
		}
	}
	assert.Equal(t, "XOR", hl.OpXor.String())
	assert.Equal(t, "Op(42)", hl.Op(42).String())
	assert.Panics(t, func() { hl.Op(42).Apply(0, 0) })
}

func TestGate_fires_once(t *testing.T) {
	c := hw.NewCircuit()
	a, b, out := c.NewLine(), c.NewLine(), c.NewLine()
	g, err := hl.NewGate(c, hl.OpAnd, a, b, out)
	require.NoError(t, err)

	var notified int
	c.Observe(out, hw.ObserverFunc(func(*hw.Circuit) error { notified++; return nil }))

	require.NoError(t, c.Set(a, 1))
	assert.False(t, g.Fired(), "fired with a single input")
	assert.False(t, c.IsSet(out))

	require.NoError(t, c.Set(b, 1))
	assert.True(t, g.Fired())
	v, err := c.Value(out)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// a late notification must not set the output again.
	require.NoError(t, g.Update(c))
	assert.Equal(t, 1, notified)
}

func TestGate_same_input(t *testing.T) {
	c := hw.NewCircuit()
	in, out := c.NewLine(), c.NewLine()
	_, err := hl.NewGate(c, hl.OpNand, in, in, out)
	require.NoError(t, err)
	// the gate is notified twice by in.
	require.NoError(t, c.Set(in, 1))
	v, err := c.Value(out)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestGate_preset_inputs(t *testing.T) {
	c := hw.NewCircuit()
	out := c.NewLine()
	_, err := hl.NewGate(c, hl.OpOr, hw.True, hw.False, out)
	require.NoError(t, err)
	v, err := c.Value(out)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// output already driven.
	_, err = hl.NewGate(c, hl.OpAnd, hw.True, hw.True, out)
	assert.ErrorIs(t, err, hw.ErrAlreadySet)
}
