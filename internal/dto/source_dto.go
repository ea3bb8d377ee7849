package dto

import (
	"time"

	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

// SourceCreateRequest uploads a text passage.
type SourceCreateRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	TextContent string `json:"text_content" validate:"required,max=100000"`
}

// SourceHighlightsRequest replaces the evidence highlights of a source.
type SourceHighlightsRequest struct {
	Highlights []RangePayload `json:"highlights" validate:"max=50,dive"`
}

// SourceResponse serializes a source with its highlights.
type SourceResponse struct {
	ID          uint                `json:"id"`
	TeacherID   uint                `json:"teacher_id"`
	Type        string              `json:"type"`
	Title       string              `json:"title"`
	TextContent string              `json:"text_content"`
	TextLength  int                 `json:"text_length"`
	Highlights  []scoring.TextRange `json:"highlights"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewSourceResponse converts a model into a source DTO.
func NewSourceResponse(source models.Source) SourceResponse {
	highlights := []scoring.TextRange(source.Highlights)
	if highlights == nil {
		highlights = []scoring.TextRange{}
	}

	return SourceResponse{
		ID:          source.ID,
		TeacherID:   source.TeacherID,
		Type:        source.Type,
		Title:       source.Title,
		TextContent: source.TextContent,
		TextLength:  source.TextLength(),
		Highlights:  highlights,
		CreatedAt:   source.CreatedAt,
		UpdatedAt:   source.UpdatedAt,
	}
}
