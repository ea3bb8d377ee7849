package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

// DefaultDOKLevel is the depth-of-knowledge level stamped on new tasks.
const DefaultDOKLevel = 2

// TaskAnswer is the authored answer key. Only the field matching the task
// mode is populated.
type TaskAnswer struct {
	Ranges []scoring.TextRange  `json:"ranges,omitempty"`
	Value  string               `json:"value,omitempty"`
	Target *scoring.PointTarget `json:"target,omitempty"`
}

// Task is a single evidence question that quizzes reference.
type Task struct {
	ID            uint                           `gorm:"primaryKey" json:"id"`
	TeacherID     uint                           `gorm:"index;not null" json:"teacher_id"`
	SourceID      *uint                          `gorm:"index" json:"source_id"`
	Mode          string                         `gorm:"size:32;not null" json:"mode"`
	Content       string                         `gorm:"type:text" json:"content"`
	Prompt        string                         `gorm:"type:text" json:"prompt"`
	ImageURL      string                         `gorm:"size:512" json:"image_url"`
	AnswerChoices datatypes.JSONSlice[string]    `gorm:"type:json" json:"answer_choices"`
	CorrectAnswer datatypes.JSONType[TaskAnswer] `gorm:"type:json" json:"correct_answer"`
	DOKLevel      int                            `gorm:"not null;default:2" json:"dok_level"`
	CreatedAt     time.Time                      `json:"created_at"`
	UpdatedAt     time.Time                      `json:"updated_at"`
}

// Reference builds the scoring reference for the task. fallback ranges are
// used for highlight tasks that carry no ranges of their own.
func (t Task) Reference(fallback []scoring.TextRange) (scoring.Reference, error) {
	mode, err := scoring.ParseMode(t.Mode)
	if err != nil {
		return scoring.Reference{}, err
	}

	answer := t.CorrectAnswer.Data()
	ref := scoring.Reference{Mode: mode}
	switch mode {
	case scoring.ModeHighlight:
		ref.Ranges = answer.Ranges
		if len(ref.Ranges) == 0 {
			ref.Ranges = fallback
		}
	case scoring.ModeMultipleChoice:
		ref.CorrectValue = answer.Value
	case scoring.ModeEvidenceHunter:
		ref.Target = answer.Target
	}
	return ref, nil
}
