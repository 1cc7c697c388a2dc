package hwtest_test

import (
	"testing"

	hw "github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
)

func TestComparePart(t *testing.T) {
	or, err := hw.Chip("custom_or", "a,b", "out",
		hl.Nand("a=a, b=a, out=notA"),
		hl.Nand("a=b, b=b, out=notB"),
		hl.Nand("a=notA, b=notB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.Or, or)
}

func TestTruthTable(t *testing.T) {
	hwtest.TruthTable(t, hl.GateOf(hl.OpXnor), func(in []int) []int {
		if in[0] == in[1] {
			return []int{1}
		}
		return []int{0}
	})
}

func TestTruthTable_wide(t *testing.T) {
	// 14 inputs: sampled instead of exhaustive.
	add7 := hl.AdderN(7)
	hwtest.TruthTable(t, add7, func(in []int) []int {
		var a, b int
		for i := 0; i < 7; i++ {
			a |= in[i] << uint(i)
			b |= in[7+i] << uint(i)
		}
		s := a + b
		out := make([]int, 8)
		for i := range out {
			out[i] = (s >> uint(i)) & 1
		}
		return out
	})
}
