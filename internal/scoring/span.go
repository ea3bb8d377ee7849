package scoring

import "math"

// HighlightPassScore is the minimum overlap score counted as correct.
const HighlightPassScore = 80

// SpanOverlap scores a student selection against the acceptable reference
// spans. Each reference is compared by intersection-over-union and the best
// match wins, so the student only has to agree with one of them.
func SpanOverlap(student *TextRange, references []TextRange) int {
	if student == nil || student.IsEmpty() || len(references) == 0 {
		return 0
	}

	best := 0.0
	for _, ref := range references {
		if candidate := jaccard(*student, ref); candidate > best {
			best = candidate
		}
	}

	return roundHalfUp(best)
}

// ScoreHighlight wraps SpanOverlap into a ScoreResult.
func ScoreHighlight(student *TextRange, references []TextRange) ScoreResult {
	score := SpanOverlap(student, references)
	return ScoreResult{Score: score, Correct: score >= HighlightPassScore}
}

func jaccard(a, b TextRange) float64 {
	overlap := max(0, min(a.End, b.End)-max(a.Start, b.Start))
	union := a.Len() + b.Len() - overlap
	if union <= 0 {
		return 0
	}
	return float64(overlap) / float64(union) * 100
}

func roundHalfUp(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	rounded := int(math.Floor(v + 0.5))
	if rounded > 100 {
		return 100
	}
	return rounded
}
