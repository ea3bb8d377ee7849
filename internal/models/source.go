package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

// SourceTypeText is the only source type accepted today.
const SourceTypeText = "text"

// Source is a reading passage a teacher uploads and marks up with evidence.
type Source struct {
	ID          uint                                   `gorm:"primaryKey" json:"id"`
	TeacherID   uint                                   `gorm:"index;not null" json:"teacher_id"`
	Type        string                                 `gorm:"size:16;not null;default:text" json:"type"`
	Title       string                                 `gorm:"size:255;not null" json:"title"`
	TextContent string                                 `gorm:"type:text;not null" json:"text_content"`
	Highlights  datatypes.JSONSlice[scoring.TextRange] `gorm:"type:json" json:"highlights"`
	CreatedAt   time.Time                              `json:"created_at"`
	UpdatedAt   time.Time                              `json:"updated_at"`
}

// TextLength returns the passage length in the unit highlight offsets use.
func (s Source) TextLength() int {
	return scoring.TextLength(s.TextContent)
}

// NewHighlights wraps ranges for storage, never storing a JSON null.
func NewHighlights(ranges []scoring.TextRange) datatypes.JSONSlice[scoring.TextRange] {
	if ranges == nil {
		ranges = []scoring.TextRange{}
	}
	return datatypes.JSONSlice[scoring.TextRange](ranges)
}
