package scoring

import "math/rand/v2"

// MatchChoice compares the choice the student picked, addressed by its index
// in the order it was presented, against the authored correct value.
// Unanswered or out-of-bounds selections score zero.
func MatchChoice(selectedIndex *int, presented []string, correctValue string) ScoreResult {
	if selectedIndex == nil {
		return ScoreResult{}
	}
	idx := *selectedIndex
	if idx < 0 || idx >= len(presented) {
		return ScoreResult{}
	}
	if presented[idx] != correctValue {
		return ScoreResult{}
	}
	return ScoreResult{Score: 100, Correct: true}
}

// Permutation returns a uniformly random ordering of [0, n) using the
// Fisher-Yates shuffle. A nil rng falls back to the global source.
func Permutation(n int, rng *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// ApplyPermutation lays out choices in presentation order: position i shows
// choices[perm[i]].
func ApplyPermutation(choices []string, perm []int) ([]string, error) {
	if len(perm) != len(choices) {
		return nil, ErrInvalidPermutation
	}
	seen := make([]bool, len(choices))
	presented := make([]string, len(choices))
	for pos, src := range perm {
		if src < 0 || src >= len(choices) || seen[src] {
			return nil, ErrInvalidPermutation
		}
		seen[src] = true
		presented[pos] = choices[src]
	}
	return presented, nil
}

// Shuffle returns a freshly shuffled copy of choices together with the
// permutation that produced it.
func Shuffle(choices []string, rng *rand.Rand) ([]string, []int) {
	perm := Permutation(len(choices), rng)
	presented, _ := ApplyPermutation(choices, perm)
	return presented, perm
}
