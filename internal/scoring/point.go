package scoring

import (
	"fmt"
	"math"
)

// Point is a click position in percent of the image width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointTarget is the authored hotspot for evidence-hunter questions.
type PointTarget struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Validate checks that the point lies on the image.
func (p Point) Validate() error {
	if !inPercentRange(p.X) || !inPercentRange(p.Y) {
		return fmt.Errorf("%w: point (%v,%v) outside image", ErrMalformedSubmission, p.X, p.Y)
	}
	return nil
}

// Validate checks the target centre and tolerance radius.
func (t PointTarget) Validate() error {
	if !inPercentRange(t.X) || !inPercentRange(t.Y) {
		return fmt.Errorf("%w: target centre (%v,%v) outside image", ErrInvalidReference, t.X, t.Y)
	}
	if math.IsNaN(t.Radius) || math.IsInf(t.Radius, 0) || t.Radius <= 0 {
		return fmt.Errorf("%w: target radius must be positive, got %v", ErrInvalidReference, t.Radius)
	}
	return nil
}

// HitTarget reports a hit when the click lands within the target radius.
// There is no partial credit.
func HitTarget(student *Point, target *PointTarget) ScoreResult {
	if student == nil || target == nil {
		return ScoreResult{}
	}
	d := math.Hypot(student.X-target.X, student.Y-target.Y)
	if d <= target.Radius {
		return ScoreResult{Score: 100, Correct: true}
	}
	return ScoreResult{}
}

func inPercentRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}
