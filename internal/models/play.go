package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

// PlaySelection is the stored student answer. Presented keeps the choice
// order the student actually saw.
type PlaySelection struct {
	Range         *scoring.TextRange `json:"range,omitempty"`
	SelectedIndex *int               `json:"selected_index,omitempty"`
	SelectedValue string             `json:"selected_value,omitempty"`
	Presented     []string           `json:"presented,omitempty"`
	Point         *scoring.Point     `json:"point,omitempty"`
}

// Play is one scored answer. A student answers each question of a session
// at most once.
type Play struct {
	ID             uint                              `gorm:"primaryKey" json:"id"`
	SessionID      uint                              `gorm:"not null;uniqueIndex:idx_play_once,priority:1" json:"session_id"`
	QuizQuestionID uint                              `gorm:"not null;uniqueIndex:idx_play_once,priority:2" json:"quiz_question_id"`
	StudentName    string                            `gorm:"size:120;not null;uniqueIndex:idx_play_once,priority:3" json:"student_name"`
	Mode           string                            `gorm:"size:32;not null" json:"mode"`
	Selections     datatypes.JSONType[PlaySelection] `gorm:"type:json" json:"selections"`
	Score          int                               `gorm:"not null" json:"score"`
	Correct        bool                              `gorm:"not null" json:"correct"`
	CreatedAt      time.Time                         `json:"created_at"`
}
