package dto

import (
	"time"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

// SessionCreateRequest starts a session for a quiz.
type SessionCreateRequest struct {
	QuizID uint `json:"quiz_id" validate:"required,gt=0"`
}

// SessionResponse serializes a session.
type SessionResponse struct {
	ID                 uint      `json:"id"`
	TeacherID          uint      `json:"teacher_id"`
	QuizID             uint      `json:"quiz_id"`
	QuizTitle          string    `json:"quiz_title"`
	JoinCode           string    `json:"join_code"`
	StartedAt          time.Time `json:"started_at"`
	IsChallenge        bool      `json:"is_challenge"`
	ChallengeName      string    `json:"challenge_name,omitempty"`
	ChallengeSessionID *uint     `json:"challenge_session_id,omitempty"`
}

// NewSessionResponse converts a session model. The quiz title is read from
// the preloaded association when present.
func NewSessionResponse(session models.Session) SessionResponse {
	return SessionResponse{
		ID:                 session.ID,
		TeacherID:          session.TeacherID,
		QuizID:             session.QuizID,
		QuizTitle:          session.Quiz.Title,
		JoinCode:           session.JoinCode,
		StartedAt:          session.StartedAt,
		IsChallenge:        session.IsChallenge,
		ChallengeName:      session.ChallengeName,
		ChallengeSessionID: session.ChallengeSessionID,
	}
}
