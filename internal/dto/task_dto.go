package dto

import (
	"time"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

// TaskCreateRequest authors one question. Which fields are required
// depends on Mode.
type TaskCreateRequest struct {
	Mode         string         `json:"mode" validate:"required,oneof=highlight multiple-choice evidence-hunter"`
	SourceID     *uint          `json:"source_id" validate:"omitempty,gt=0"`
	Content      string         `json:"content" validate:"max=100000"`
	Prompt       string         `json:"prompt" validate:"required,max=2000"`
	ImageURL     string         `json:"image_url" validate:"omitempty,url,max=512"`
	Choices      []string       `json:"choices" validate:"omitempty,max=10,dive,max=500"`
	CorrectIndex *int           `json:"correct_index" validate:"omitempty,min=0"`
	Ranges       []RangePayload `json:"ranges" validate:"omitempty,max=20,dive"`
	Target       *TargetPayload `json:"target"`
	DOKLevel     int            `json:"dok_level" validate:"omitempty,min=1,max=4"`
}

// TaskListRequest filters the task bank.
type TaskListRequest struct {
	Mode string `validate:"omitempty,oneof=highlight multiple-choice evidence-hunter"`
}

// TaskResponse is the teacher view of a task, answer key included.
type TaskResponse struct {
	ID            uint              `json:"id"`
	TeacherID     uint              `json:"teacher_id"`
	SourceID      *uint             `json:"source_id,omitempty"`
	Mode          string            `json:"mode"`
	Content       string            `json:"content"`
	Prompt        string            `json:"prompt"`
	ImageURL      string            `json:"image_url,omitempty"`
	AnswerChoices []string          `json:"answer_choices,omitempty"`
	CorrectAnswer models.TaskAnswer `json:"correct_answer"`
	DOKLevel      int               `json:"dok_level"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewTaskResponse converts a model into a task DTO.
func NewTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:            task.ID,
		TeacherID:     task.TeacherID,
		SourceID:      task.SourceID,
		Mode:          task.Mode,
		Content:       task.Content,
		Prompt:        task.Prompt,
		ImageURL:      task.ImageURL,
		AnswerChoices: []string(task.AnswerChoices),
		CorrectAnswer: task.CorrectAnswer.Data(),
		DOKLevel:      task.DOKLevel,
		CreatedAt:     task.CreatedAt,
	}
}

// UploadResponse describes a stored task image.
type UploadResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
	Reused    bool   `json:"reused"`
}
