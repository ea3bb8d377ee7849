package dto

import (
	"time"

	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
)

// QuizCreateRequest builds a quiz from inline questions, existing task ids,
// or both. Inline questions come first.
type QuizCreateRequest struct {
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description" validate:"max=2000"`
	Questions   []TaskCreateRequest `json:"questions" validate:"omitempty,max=50,dive"`
	TaskIDs     []uint              `json:"task_ids" validate:"omitempty,max=50,dive,gt=0"`
}

// QuizQuestionResponse is one ordered question of a quiz.
type QuizQuestionResponse struct {
	ID       uint         `json:"id"`
	OrderNum int          `json:"order_num"`
	Points   int          `json:"points"`
	Task     TaskResponse `json:"task"`
}

// QuizResponse is the detailed teacher view of a quiz.
type QuizResponse struct {
	ID            uint                   `json:"id"`
	TeacherID     uint                   `json:"teacher_id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	QuestionCount int                    `json:"question_count"`
	Questions     []QuizQuestionResponse `json:"questions"`
	CreatedAt     time.Time              `json:"created_at"`
}

// QuizSummaryResponse is a quiz row on the teacher dashboard.
type QuizSummaryResponse struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int64     `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewQuizResponse converts a quiz with preloaded questions.
func NewQuizResponse(quiz models.Quiz) QuizResponse {
	questions := make([]QuizQuestionResponse, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questions = append(questions, QuizQuestionResponse{
			ID:       question.ID,
			OrderNum: question.OrderNum,
			Points:   question.Points,
			Task:     NewTaskResponse(question.Task),
		})
	}

	return QuizResponse{
		ID:            quiz.ID,
		TeacherID:     quiz.TeacherID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		QuestionCount: len(questions),
		Questions:     questions,
		CreatedAt:     quiz.CreatedAt,
	}
}

// NewQuizSummaryResponse converts a repository summary row.
func NewQuizSummaryResponse(summary repository.QuizSummary) QuizSummaryResponse {
	return QuizSummaryResponse{
		ID:            summary.ID,
		Title:         summary.Title,
		Description:   summary.Description,
		QuestionCount: summary.QuestionCount,
		CreatedAt:     summary.CreatedAt,
	}
}
