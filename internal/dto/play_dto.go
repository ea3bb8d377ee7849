package dto

import (
	"time"

	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

// JoinRequest lets a student enter a session by code.
type JoinRequest struct {
	JoinCode    string `json:"join_code" validate:"required,len=6,alphanum"`
	StudentName string `json:"student_name" validate:"required,max=120"`
}

// PlayQuestionSummary lists a question without its content.
type PlayQuestionSummary struct {
	ID       uint   `json:"id"`
	OrderNum int    `json:"order_num"`
	Points   int    `json:"points"`
	Mode     string `json:"mode"`
}

// JoinResponse describes the session a student just joined.
type JoinResponse struct {
	SessionID           uint                  `json:"session_id"`
	QuizID              uint                  `json:"quiz_id"`
	QuizTitle           string                `json:"quiz_title"`
	StudentName         string                `json:"student_name"`
	IsChallenge         bool                  `json:"is_challenge"`
	ChallengeName       string                `json:"challenge_name,omitempty"`
	Questions           []PlayQuestionSummary `json:"questions"`
	AnsweredQuestionIDs []uint                `json:"answered_question_ids"`
}

// PlayQuestionResponse is the student view of a question. Choices are in
// presentation order and ViewToken must be echoed back on submit.
type PlayQuestionResponse struct {
	ID        uint     `json:"id"`
	SessionID uint     `json:"session_id"`
	OrderNum  int      `json:"order_num"`
	Points    int      `json:"points"`
	Mode      string   `json:"mode"`
	Content   string   `json:"content,omitempty"`
	Prompt    string   `json:"prompt"`
	ImageURL  string   `json:"image_url,omitempty"`
	Choices   []string `json:"choices,omitempty"`
	ViewToken string   `json:"view_token,omitempty"`
}

// PreviewRequest carries the raw selection offsets in either order.
type PreviewRequest struct {
	Anchor int `json:"anchor" validate:"min=0"`
	Focus  int `json:"focus" validate:"min=0"`
}

// PreviewResponse is the passage rendered with the student's own selection.
type PreviewResponse struct {
	Range    *scoring.TextRange `json:"range"`
	Segments []scoring.Segment  `json:"segments"`
}

// SubmitRequest is one answer. Exactly the field matching the question mode
// should be set; an absent answer scores zero.
type SubmitRequest struct {
	StudentName   string        `json:"student_name" validate:"required,max=120"`
	Mode          string        `json:"mode" validate:"omitempty,max=32"`
	ViewToken     string        `json:"view_token" validate:"omitempty,max=64"`
	Range         *RangePayload `json:"range"`
	SelectedIndex *int          `json:"selected_index"`
	Point         *PointPayload `json:"point"`
}

// SubmitResponse reports the score and, for highlight questions, the review
// rendering with reference spans shown.
type SubmitResponse struct {
	PlayID       uint              `json:"play_id"`
	SessionID    uint              `json:"session_id"`
	QuestionID   uint              `json:"question_id"`
	StudentName  string            `json:"student_name"`
	Mode         string            `json:"mode"`
	Score        int               `json:"score"`
	Correct      bool              `json:"correct"`
	CorrectValue string            `json:"correct_value,omitempty"`
	Review       []scoring.Segment `json:"review,omitempty"`
	AnsweredAt   time.Time         `json:"answered_at"`
}
