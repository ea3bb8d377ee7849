package dto

import "github.com/noah-isme/evidence-builder-api/internal/scoring"

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// RangePayload is a text selection as sent by the client, in UTF-16 offsets.
type RangePayload struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TextRange converts the payload without reordering or validating it.
func (r RangePayload) TextRange() scoring.TextRange {
	return scoring.TextRange{Start: r.Start, End: r.End}
}

// PointPayload is a click position in percent of the image size.
type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TargetPayload is the authored hotspot of an evidence-hunter task.
type TargetPayload struct {
	X      float64 `json:"x" validate:"min=0,max=100"`
	Y      float64 `json:"y" validate:"min=0,max=100"`
	Radius float64 `json:"radius" validate:"gt=0,max=100"`
}
