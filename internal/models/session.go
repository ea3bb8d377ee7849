package models

import "time"

// JoinCodeLength is the number of characters in a session join code.
const JoinCodeLength = 6

// Session is one live run of a quiz that students join by code.
type Session struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	TeacherID          uint      `gorm:"index;not null" json:"teacher_id"`
	QuizID             uint      `gorm:"index;not null" json:"quiz_id"`
	Quiz               Quiz      `gorm:"foreignKey:QuizID" json:"quiz"`
	JoinCode           string    `gorm:"size:6;uniqueIndex;not null" json:"join_code"`
	StartedAt          time.Time `gorm:"not null" json:"started_at"`
	IsChallenge        bool      `gorm:"not null;default:false" json:"is_challenge"`
	ChallengeName      string    `gorm:"size:255" json:"challenge_name"`
	ChallengeSessionID *uint     `gorm:"index" json:"challenge_session_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
