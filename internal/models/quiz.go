package models

import "time"

// DefaultQuestionPoints is the weight given to every quiz question.
const DefaultQuestionPoints = 100

// Quiz is an ordered collection of tasks a teacher runs as sessions.
type Quiz struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TeacherID   uint           `gorm:"index;not null" json:"teacher_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Questions   []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// QuizQuestion links a task into a quiz at a 1-based position.
type QuizQuestion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QuizID    uint      `gorm:"not null;uniqueIndex:idx_quiz_question_order,priority:1" json:"quiz_id"`
	OrderNum  int       `gorm:"not null;uniqueIndex:idx_quiz_question_order,priority:2" json:"order_num"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	Task      Task      `gorm:"foreignKey:TaskID" json:"task"`
	Points    int       `gorm:"not null;default:100" json:"points"`
	CreatedAt time.Time `json:"created_at"`
}
