package scoring

import (
	"sort"
	"strings"
	"unicode/utf16"
)

// SegmentKind labels a rendered piece of text.
type SegmentKind string

const (
	SegmentPlain     SegmentKind = "plain"
	SegmentStudent   SegmentKind = "student"
	SegmentReference SegmentKind = "reference"
)

// Segment is one contiguous piece of rendered text. Start and End are
// UTF-16 offsets into the original text.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Text  string      `json:"text"`
	Start int         `json:"start"`
	End   int         `json:"end"`
}

// Annotated reports whether the segment marks a student or reference span.
func (s Segment) Annotated() bool {
	return s.Kind != SegmentPlain
}

type annotation struct {
	r    TextRange
	kind SegmentKind
	// start is the offset before clamping and decides emission order.
	start int
}

// RenderHighlights splits text into plain and annotated segments covering
// every code unit exactly once. Reference spans are included only when
// showReferences is set. Overlapping spans are not merged: each one is
// emitted in order of its unclamped start, trimmed to begin where the
// previous one ended.
func RenderHighlights(text string, student *TextRange, references []TextRange, showReferences bool) []Segment {
	units := utf16.Encode([]rune(text))
	n := len(units)

	annotations := make([]annotation, 0, len(references)+1)
	if student != nil && !student.IsEmpty() {
		annotations = append(annotations, annotation{r: student.Clamp(n), kind: SegmentStudent, start: student.Start})
	}
	if showReferences {
		for _, ref := range references {
			annotations = append(annotations, annotation{r: ref.Clamp(n), kind: SegmentReference, start: ref.Start})
		}
	}
	sort.SliceStable(annotations, func(i, j int) bool {
		return annotations[i].start < annotations[j].start
	})

	segments := make([]Segment, 0, 2*len(annotations)+1)
	emit := func(kind SegmentKind, start, end int) {
		segments = append(segments, Segment{
			Kind:  kind,
			Text:  string(utf16.Decode(units[start:end])),
			Start: start,
			End:   end,
		})
	}

	cursor := 0
	for _, a := range annotations {
		start := snapToRune(units, a.r.Start)
		end := snapToRune(units, a.r.End)
		if start < cursor {
			start = cursor
		}
		if end <= start {
			continue
		}
		if cursor < start {
			emit(SegmentPlain, cursor, start)
		}
		emit(a.kind, start, end)
		cursor = end
	}
	if cursor < n {
		emit(SegmentPlain, cursor, n)
	}

	return segments
}

// StripSegments joins segment text back into the source string.
func StripSegments(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// snapToRune moves an offset that falls between the halves of a surrogate
// pair to the end of the pair so no segment carries half a character.
func snapToRune(units []uint16, i int) int {
	if i > 0 && i < len(units) && isHighSurrogate(units[i-1]) && isLowSurrogate(units[i]) {
		return i + 1
	}
	return i
}

func isHighSurrogate(u uint16) bool { return u >= 0xd800 && u < 0xdc00 }

func isLowSurrogate(u uint16) bool { return u >= 0xdc00 && u < 0xe000 }
