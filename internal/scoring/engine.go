// Package scoring compares student answers with teacher-authored reference
// answers. Every function is pure and safe for concurrent use.
package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// Mode tags the kind of question being scored.
type Mode string

const (
	ModeHighlight      Mode = "highlight"
	ModeMultipleChoice Mode = "multiple-choice"
	ModeEvidenceHunter Mode = "evidence-hunter"
)

var (
	// ErrUnknownMode indicates a mode tag outside the supported set.
	ErrUnknownMode = errors.New("unknown question mode")
	// ErrModeMismatch indicates the submission was built for another mode.
	ErrModeMismatch = errors.New("submission mode does not match question mode")
	// ErrMalformedSubmission indicates the student payload violates its shape.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrInvalidReference indicates the authored answer key is unusable.
	ErrInvalidReference = errors.New("invalid reference answer")
	// ErrInvalidPermutation indicates a stored presentation order does not fit the choice list.
	ErrInvalidPermutation = errors.New("invalid choice permutation")
)

// ParseMode normalises a stored or user-supplied mode tag.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
	return mode, nil
}

// Valid reports whether the mode is supported.
func (m Mode) Valid() bool {
	switch m {
	case ModeHighlight, ModeMultipleChoice, ModeEvidenceHunter:
		return true
	default:
		return false
	}
}

// ScoreResult is the outcome for a single submission.
type ScoreResult struct {
	Score   int  `json:"score"`
	Correct bool `json:"correct"`
}

// Reference is the authored answer for one question. Only the field that
// matches Mode is consulted.
type Reference struct {
	Mode         Mode
	Ranges       []TextRange
	CorrectValue string
	Target       *PointTarget
}

// Submission is the student answer for one question. Presented holds the
// choices in the exact order shown to the student.
type Submission struct {
	Mode          Mode
	Range         *TextRange
	SelectedIndex *int
	Presented     []string
	Point         *Point
}

// Score dispatches to the scorer for the question mode. Missing answers
// score zero; payloads that break the contract return an error instead of
// a guessed score.
func Score(ref Reference, sub Submission) (ScoreResult, error) {
	if !ref.Mode.Valid() {
		return ScoreResult{}, fmt.Errorf("%w: %q", ErrUnknownMode, ref.Mode)
	}
	if sub.Mode != "" && sub.Mode != ref.Mode {
		return ScoreResult{}, fmt.Errorf("%w: got %q, want %q", ErrModeMismatch, sub.Mode, ref.Mode)
	}

	switch ref.Mode {
	case ModeHighlight:
		return scoreHighlight(ref, sub)
	case ModeMultipleChoice:
		return scoreChoice(ref, sub)
	case ModeEvidenceHunter:
		return scorePoint(ref, sub)
	}
	return ScoreResult{}, fmt.Errorf("%w: %q", ErrUnknownMode, ref.Mode)
}

func scoreHighlight(ref Reference, sub Submission) (ScoreResult, error) {
	if sub.SelectedIndex != nil || sub.Point != nil {
		return ScoreResult{}, fmt.Errorf("%w: highlight answers carry a text range only", ErrModeMismatch)
	}
	for _, r := range ref.Ranges {
		if err := r.Validate(); err != nil {
			return ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
	}
	if sub.Range != nil {
		if err := sub.Range.Validate(); err != nil {
			return ScoreResult{}, err
		}
	}
	return ScoreHighlight(sub.Range, ref.Ranges), nil
}

func scoreChoice(ref Reference, sub Submission) (ScoreResult, error) {
	if sub.Range != nil || sub.Point != nil {
		return ScoreResult{}, fmt.Errorf("%w: multiple-choice answers carry a selected index only", ErrModeMismatch)
	}
	if sub.SelectedIndex == nil {
		return ScoreResult{}, nil
	}
	if idx := *sub.SelectedIndex; idx < 0 || idx >= len(sub.Presented) {
		return ScoreResult{}, fmt.Errorf("%w: choice index %d outside %d presented choices", ErrMalformedSubmission, idx, len(sub.Presented))
	}
	return MatchChoice(sub.SelectedIndex, sub.Presented, ref.CorrectValue), nil
}

func scorePoint(ref Reference, sub Submission) (ScoreResult, error) {
	if sub.Range != nil || sub.SelectedIndex != nil {
		return ScoreResult{}, fmt.Errorf("%w: evidence-hunter answers carry a point only", ErrModeMismatch)
	}
	if ref.Target == nil || sub.Point == nil {
		return ScoreResult{}, nil
	}
	if err := ref.Target.Validate(); err != nil {
		return ScoreResult{}, err
	}
	if err := sub.Point.Validate(); err != nil {
		return ScoreResult{}, err
	}
	return HitTarget(sub.Point, ref.Target), nil
}
