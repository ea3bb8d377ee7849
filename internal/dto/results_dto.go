package dto

import "time"

// PlayResult is one answered question inside a student summary.
type PlayResult struct {
	PlayID     uint      `json:"play_id"`
	QuestionID uint      `json:"question_id"`
	Mode       string    `json:"mode"`
	Score      int       `json:"score"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

// StudentResult summarises one student across a session.
type StudentResult struct {
	StudentName       string       `json:"student_name"`
	QuestionsAnswered int          `json:"questions_answered"`
	CorrectCount      int          `json:"correct_count"`
	TotalScore        int          `json:"total_score"`
	AverageScore      int          `json:"average_score"`
	Plays             []PlayResult `json:"plays"`
}

// SessionResultsResponse is the teacher results page for one session.
type SessionResultsResponse struct {
	SessionID    uint            `json:"session_id"`
	QuizID       uint            `json:"quiz_id"`
	QuizTitle    string          `json:"quiz_title"`
	JoinCode     string          `json:"join_code"`
	StudentCount int             `json:"student_count"`
	TotalPlays   int             `json:"total_plays"`
	ClassAverage *int            `json:"class_average"`
	Students     []StudentResult `json:"students"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// ChallengeEntry is one session taking part in a challenge.
type ChallengeEntry struct {
	SessionID    uint      `json:"session_id"`
	JoinCode     string    `json:"join_code"`
	Original     bool      `json:"original"`
	StartedAt    time.Time `json:"started_at"`
	StudentCount int       `json:"student_count"`
	TotalPlays   int       `json:"total_plays"`
	Average      *int      `json:"average"`
}

// ChallengeResultsResponse compares the challenge session with every
// session that accepted it.
type ChallengeResultsResponse struct {
	ChallengeSessionID uint             `json:"challenge_session_id"`
	ChallengeName      string           `json:"challenge_name"`
	QuizID             uint             `json:"quiz_id"`
	Entries            []ChallengeEntry `json:"entries"`
}

// LeaderboardEntry is one ranked student.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	StudentName string `json:"student_name"`
	TotalScore  int    `json:"total_score"`
}

// LeaderboardResponse lists running totals for a session, best first.
type LeaderboardResponse struct {
	SessionID uint               `json:"session_id"`
	Entries   []LeaderboardEntry `json:"entries"`
}
