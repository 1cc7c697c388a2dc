package hwtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample(t *testing.T, n int) [][]int {
	var out [][]int
	inputSets(t, n, func(in []int) bool {
		out = append(out, append([]int(nil), in...))
		return true
	})
	return out
}

func Test_inputSets(t *testing.T) {
	all := sample(t, 3)
	assert.Len(t, all, 8)
	assert.Equal(t, []int{1, 0, 1}, all[5])

	old := *seed
	defer func() { *seed = old }()
	*seed = 42
	s1 := sample(t, maxExhaustive+2)
	s2 := sample(t, maxExhaustive+2)
	assert.Len(t, s1, 2+1<<maxExhaustive)
	assert.Equal(t, s1, s2, "same seed, same sample")
	assert.Equal(t, make([]int, maxExhaustive+2), s1[0])
}
