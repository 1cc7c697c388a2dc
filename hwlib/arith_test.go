package hwlib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hw "github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
)

func TestHalfAdder(t *testing.T) {
	hwtest.TruthTable(t, hl.HalfAdder, func(in []int) []int {
		x, y := in[0], in[1]
		return []int{x ^ y, x & y}
	})

	h, err := hw.Chip("myHalfAdder", "a, b", "s, c",
		hl.Xor("a=a, b=b, out=s"),
		hl.And("a=a, b=b, out=c"),
	)
	require.NoError(t, err)
	hwtest.ComparePart(t, hl.HalfAdder, h)
}

func TestFullAdder(t *testing.T) {
	hwtest.TruthTable(t, hl.FullAdder, func(in []int) []int {
		s := in[0] + in[1] + in[2]
		return []int{s & 1, s >> 1}
	})

	adder, err := hw.Chip("myFullAdder", "a, b, cin", "s, cout",
		hl.HalfAdder("a=a, b=b, s=s0, c=c0"),
		hl.HalfAdder("a=s0, b=cin, s=s, c=c1"),
		hl.Or("a=c0, b=c1, out=cout"),
	)
	require.NoError(t, err)
	hwtest.ComparePart(t, hl.FullAdder, adder)
}

func TestAdderN(t *testing.T) {
	add4, err := hw.Chip("Adder4", "a[4], b[4]", "out[4], c",
		hl.HalfAdder("a=a[0], b=b[0], s=out[0], c=c0"),
		hl.FullAdder("a=a[1], b=b[1], cin=c0, s=out[1], cout=c1"),
		hl.FullAdder("a=a[2], b=b[2], cin=c1, s=out[2], cout=c2"),
		hl.FullAdder("a=a[3], b=b[3], cin=c2, s=out[3], cout=c"),
	)
	require.NoError(t, err)
	hwtest.ComparePart(t, hl.AdderN(4), add4)

	// chips of chips
	add8, err := hw.Chip("Adder8", "a[8], b[8]", "out[8], c",
		add4("a[0..3]=a[0..3], b[0..3]=b[0..3], out[0..3]=out[0..3], c=c0"),
		hl.FullAdder("a=a[4], b=b[4], cin=c0, s=out[4], cout=c1"),
		hl.FullAdder("a=a[5], b=b[5], cin=c1, s=out[5], cout=c2"),
		hl.FullAdder("a=a[6], b=b[6], cin=c2, s=out[6], cout=c3"),
		hl.FullAdder("a=a[7], b=b[7], cin=c3, s=out[7], cout=c"),
	)
	require.NoError(t, err)
	hwtest.ComparePart(t, hl.AdderN(8), add8)
}

func TestBuildAdder(t *testing.T) {
	const bits = 8
	c := hw.NewCircuit()
	a, err := hl.BuildAdder(c, bits)
	require.NoError(t, err)
	require.Equal(t, bits, a.Bits())
	require.Len(t, a.A, bits)
	require.Len(t, a.B, bits)
	require.Len(t, a.Carry, bits+1)

	v, err := c.Value(a.Carry[0])
	require.NoError(t, err)
	assert.Equal(t, 0, v, "initial carry")
	for _, l := range a.Sum {
		assert.False(t, c.IsSet(l), "%s set before inputs are driven", c.Name(l))
	}

	// 100 + 200 = 300 = 44 mod 256, carry out set.
	require.NoError(t, hl.SetBits(c, a.A, []int{0, 0, 1, 0, 0, 1, 1, 0}))
	for _, l := range a.Sum {
		assert.False(t, c.IsSet(l), "%s set with a single operand", c.Name(l))
	}
	require.NoError(t, hl.SetBits(c, a.B, []int{0, 0, 0, 1, 0, 0, 1, 1}))

	sum, err := hl.Bits(c, a.Sum)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 0, 1, 0, 0}, sum)
	co, err := c.Value(a.Carry[bits])
	require.NoError(t, err)
	assert.Equal(t, 1, co)
}

func TestBuildAdder_interleaved(t *testing.T) {
	// driving order does not matter: drive from msb to lsb, alternating operands.
	c := hw.NewCircuit()
	a, err := hl.BuildAdder(c, 4)
	require.NoError(t, err)
	x, y := []int{1, 1, 0, 0}, []int{1, 0, 1, 0} // 3 + 5
	for i := 3; i >= 0; i-- {
		require.NoError(t, c.Set(a.B[i], y[i]))
		require.NoError(t, c.Set(a.A[i], x[i]))
	}
	sum, err := hl.Bits(c, a.Sum)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1}, sum)
}

func TestBuildAdder_width(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := hl.BuildAdder(hw.NewCircuit(), n)
		assert.ErrorIs(t, err, hl.ErrInvalidWidth)
	}
}

func TestBuildAdder_partial(t *testing.T) {
	// an undriven input leaves the outputs that depend on it dormant.
	c := hw.NewCircuit()
	a, err := hl.BuildAdder(c, 2)
	require.NoError(t, err)
	require.NoError(t, c.Set(a.A[0], 1))
	require.NoError(t, c.Set(a.B[0], 1))
	require.NoError(t, c.Set(a.A[1], 0))

	v, err := c.Value(a.Sum[0])
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.False(t, c.IsSet(a.Sum[1]))
	_, err = hl.Bits(c, a.Sum)
	assert.ErrorIs(t, err, hw.ErrNotSet)
}
