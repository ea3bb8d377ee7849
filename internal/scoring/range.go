package scoring

import (
	"fmt"
	"unicode/utf16"
)

// TextRange is a half-open [Start, End) span of UTF-16 code units.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of code units covered by the range.
func (r TextRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// IsEmpty reports whether the range selects nothing.
func (r TextRange) IsEmpty() bool {
	return r.Len() == 0
}

// Validate rejects negative offsets and inverted ranges.
func (r TextRange) Validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("%w: negative offset in range [%d,%d)", ErrMalformedSubmission, r.Start, r.End)
	}
	if r.End < r.Start {
		return fmt.Errorf("%w: range end %d before start %d", ErrMalformedSubmission, r.End, r.Start)
	}
	return nil
}

// Clamp pins both offsets into [0, length].
func (r TextRange) Clamp(length int) TextRange {
	return TextRange{
		Start: clamp(r.Start, 0, length),
		End:   clamp(r.End, 0, length),
	}
}

// Within reports whether the range lies inside a text of the given length.
func (r TextRange) Within(length int) bool {
	return r.Start >= 0 && r.End >= r.Start && r.End <= length
}

// NormalizeRange orders two offsets captured from a selection. A collapsed
// selection yields nil.
func NormalizeRange(a, b int) *TextRange {
	start, end := a, b
	if start > end {
		start, end = end, start
	}
	if start == end {
		return nil
	}
	return &TextRange{Start: start, End: end}
}

// TextLength returns the length of s in UTF-16 code units, the unit every
// stored offset is expressed in.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
