package hwlib_test

import (
	"bytes"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hw "github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
)

func TestCollector(t *testing.T) {
	c := hw.NewCircuit()
	lines := c.NewLines(3)
	r, err := hl.NewCollector(c, lines)
	require.NoError(t, err)

	_, err = r.Result()
	assert.ErrorIs(t, err, hw.ErrNotSet)
	_, err = r.Sign()
	assert.ErrorIs(t, err, hw.ErrNotSet)
	_, err = r.Int()
	assert.ErrorIs(t, err, hw.ErrNotSet)

	require.NoError(t, c.Set(lines[0], 0))
	require.NoError(t, c.Set(lines[1], 0))
	assert.False(t, r.Done())
	require.NoError(t, c.Set(lines[2], 1))
	require.True(t, r.Done())

	v, err := r.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Int64())
	s, err := r.Sign()
	require.NoError(t, err)
	assert.Equal(t, 1, s)
	i, err := r.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(-4), i.Int64())
}

func TestCollector_settled(t *testing.T) {
	c := hw.NewCircuit()
	lines := c.NewLines(2)
	r, err := hl.NewCollector(c, lines)
	require.NoError(t, err)

	var got []*big.Int
	r.OnSettled = func(v *big.Int) error {
		got = append(got, v)
		return nil
	}
	require.NoError(t, hl.SetBits(c, lines, []int{1, 0}))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Int64())

	// errors abort the cascade and reach the caller of Set.
	c = hw.NewCircuit()
	lines = c.NewLines(1)
	r, err = hl.NewCollector(c, lines)
	require.NoError(t, err)
	fail := errors.New("fail")
	r.OnSettled = func(*big.Int) error { return fail }
	assert.Equal(t, fail, c.Set(lines[0], 1))
}

func TestCollector_empty(t *testing.T) {
	_, err := hl.NewCollector(hw.NewCircuit(), nil)
	assert.Error(t, err)
}

func TestSetBits(t *testing.T) {
	c := hw.NewCircuit()
	lines := c.NewLines(2)
	assert.Error(t, hl.SetBits(c, lines, []int{1}))
	assert.ErrorIs(t, hl.SetBits(c, lines, []int{1, 2}), hw.ErrInvalidValue)
}

func TestProbe(t *testing.T) {
	c := hw.NewCircuit()
	l := c.NewLine()
	c.SetName(l, "probed")

	var names []string
	var values []int
	f := func(name string, v int) {
		names = append(names, name)
		values = append(values, v)
	}
	hl.Probe(c, l, f)
	hl.Probe(c, hw.True, f) // already set: reported immediately
	require.NoError(t, c.Set(l, 0))
	assert.Equal(t, []string{"true", "probed"}, names)
	assert.Equal(t, []int{1, 0}, values)
}

func TestLogProbe(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := hw.NewCircuit()
	a, err := hl.BuildAdder(c, 2)
	require.NoError(t, err)
	hl.LogProbe(c, logger, a.Sum...)
	require.NoError(t, hl.SetBits(c, a.A, []int{1, 0}))
	require.NoError(t, hl.SetBits(c, a.B, []int{1, 0}))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "line set"))
	assert.Contains(t, out, "line=out[0] value=0")
	assert.Contains(t, out, "line=out[1] value=1")
	assert.Contains(t, out, c.ID().String())

	// disabled below debug level.
	buf.Reset()
	logger = slog.New(slog.NewTextHandler(&buf, nil))
	c = hw.NewCircuit()
	l := c.NewLine()
	hl.LogProbe(c, logger, l)
	require.NoError(t, c.Set(l, 1))
	assert.Empty(t, buf.String())
}

func TestInputOutput(t *testing.T) {
	var out []int
	c := hw.NewCircuit()
	_, err := hw.Mount(c,
		hl.Input(func() int { return 1 })("out=a"),
		hl.Input(func() int { return 1 })("out=b"),
		hl.Xor("a=a, b=b, out=x"),
		hl.Output(func(v int) { out = append(out, v) })("in=x"),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, out)
}

func TestFunc(t *testing.T) {
	maj := hl.Func("MAJ", []string{"a", "b", "c"}, []string{"out"}, func(in []int) []int {
		if in[0]+in[1]+in[2] >= 2 {
			return []int{1}
		}
		return []int{0}
	})
	c := hw.NewCircuit()
	s, err := hw.Mount(c, maj("a=x, b=y, c=z, out=m"))
	require.NoError(t, err)
	require.NoError(t, c.Set(s.Pin("x"), 1))
	require.NoError(t, c.Set(s.Pin("y"), 0))
	assert.False(t, c.IsSet(s.Pin("m")))
	require.NoError(t, c.Set(s.Pin("z"), 1))
	v, err := c.Value(s.Pin("m"))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestInputNOutputN(t *testing.T) {
	var got []int64
	for _, d := range [][2]int64{{100, 27}, {-3, -5}, {127, 1}} {
		c := hw.NewCircuit()
		_, err := hw.Mount(c,
			hl.InputN(8, func() *big.Int { return big.NewInt(d[0]) })("out[0..7]=x[0..7]"),
			hl.OutputN(8, func(v *big.Int) { got = append(got, v.Int64()) })("in[0..7]=s[0..7]"),
			hl.InputN(8, func() *big.Int { return big.NewInt(d[1]) })("out[0..7]=y[0..7]"),
			hl.AdderN(8)("a[0..7]=x[0..7], b[0..7]=y[0..7], out[0..7]=s[0..7]"),
		)
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{127, -8, -128}, got)

	// output mounted after its inputs settled.
	var v *big.Int
	c := hw.NewCircuit()
	_, err := hw.Mount(c,
		hl.InputN(4, func() *big.Int { return big.NewInt(9) })("out[0..3]=x[0..3]"),
		hl.OutputN(4, func(n *big.Int) { v = n })("in[0..3]=x[0..3]"),
	)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int64(-7), v.Int64())
}
