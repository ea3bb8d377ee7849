package scoring

// Average returns the rounded arithmetic mean of per-question scores. ok is
// false when there is nothing to average.
func Average(scores []int) (avg int, ok bool) {
	mean, ok := Mean(scores)
	if !ok {
		return 0, false
	}
	return RoundScore(mean), true
}

// Mean returns the unrounded arithmetic mean of scores.
func Mean(scores []int) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores)), true
}

// RoundScore rounds half up into [0, 100].
func RoundScore(v float64) int {
	return roundHalfUp(v)
}
