package scoring

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestMatchChoiceByPresentedValue(t *testing.T) {
	presented := []string{"Paris", "London", "Rome"}

	require.Equal(t, ScoreResult{Score: 100, Correct: true}, MatchChoice(intPtr(1), presented, "London"))
	require.Equal(t, ScoreResult{}, MatchChoice(intPtr(0), presented, "London"))
	require.Equal(t, ScoreResult{}, MatchChoice(nil, presented, "London"))
}

func TestMatchChoiceOutOfBoundsScoresZero(t *testing.T) {
	presented := []string{"Paris", "London"}
	require.Equal(t, ScoreResult{}, MatchChoice(intPtr(2), presented, "London"))
	require.Equal(t, ScoreResult{}, MatchChoice(intPtr(-1), presented, "London"))
}

func TestMatchChoiceIsExact(t *testing.T) {
	presented := []string{"london", " London", "London "}
	for i := range presented {
		require.False(t, MatchChoice(intPtr(i), presented, "London").Correct)
	}
}

func TestShuffleKeepsMatchingByValue(t *testing.T) {
	authored := []string{"Paris", "London", "Rome", "Berlin"}
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		presented, perm := Shuffle(authored, rng)
		require.Len(t, perm, len(authored))

		var londonAt int
		for pos, src := range perm {
			require.Equal(t, authored[src], presented[pos])
			if presented[pos] == "London" {
				londonAt = pos
			}
		}
		require.True(t, MatchChoice(&londonAt, presented, "London").Correct)
	}
}

func TestPermutationIsAPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	perm := Permutation(10, rng)
	sorted := append([]int(nil), perm...)
	sort.Ints(sorted)
	for i, v := range sorted {
		require.Equal(t, i, v)
	}

	require.Empty(t, Permutation(0, rng))
	require.Equal(t, []int{0}, Permutation(1, nil))
}

func TestPermutationIsRoughlyUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	const trials = 6000
	counts := map[[3]int]int{}
	for i := 0; i < trials; i++ {
		p := Permutation(3, rng)
		counts[[3]int{p[0], p[1], p[2]}]++
	}
	require.Len(t, counts, 6)
	for perm, n := range counts {
		require.InDelta(t, trials/6, n, 150, "permutation %v", perm)
	}
}

func TestApplyPermutationRejectsMismatch(t *testing.T) {
	_, err := ApplyPermutation([]string{"a", "b"}, []int{0})
	require.ErrorIs(t, err, ErrInvalidPermutation)

	_, err = ApplyPermutation([]string{"a", "b"}, []int{1, 1})
	require.ErrorIs(t, err, ErrInvalidPermutation)

	_, err = ApplyPermutation([]string{"a", "b"}, []int{0, 2})
	require.ErrorIs(t, err, ErrInvalidPermutation)

	presented, err := ApplyPermutation([]string{"a", "b", "c"}, []int{2, 0, 1})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, presented)
}
