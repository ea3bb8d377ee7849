package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
)

var (
	// ErrSessionNotFound indicates the session or join code does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotChallenge indicates the session has not been shared as a challenge.
	ErrNotChallenge = errors.New("session is not a challenge")
	// ErrJoinCodeExhausted indicates no free join code was found.
	ErrJoinCodeExhausted = errors.New("could not allocate a unique join code")
)

const (
	joinCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	joinCodeAttempts = 8
	challengeSuffix  = " Challenge"
)

// SessionService starts quiz sessions and manages challenges between
// teachers.
type SessionService interface {
	Start(ctx context.Context, actor Actor, req dto.SessionCreateRequest) (dto.SessionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SessionResponse, error)
	GetByJoinCode(ctx context.Context, code string) (dto.SessionResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.SessionResponse, error)
	ShareChallenge(ctx context.Context, actor Actor, id uint) (dto.SessionResponse, error)
	AcceptChallenge(ctx context.Context, actor Actor, challengeID uint) (dto.SessionResponse, error)
}

type sessionService struct {
	repo      repository.SessionRepository
	quizzes   repository.QuizRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
	newCode   func() (string, error)
}

// NewSessionService constructs a session service.
func NewSessionService(repo repository.SessionRepository, quizzes repository.QuizRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) SessionService {
	return &sessionService{
		repo:      repo,
		quizzes:   quizzes,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "session_service").Logger(),
		now:       time.Now,
		newCode:   generateJoinCode,
	}
}

func (s *sessionService) Start(ctx context.Context, actor Actor, req dto.SessionCreateRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, req.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrQuizNotFound
		}
		return dto.SessionResponse{}, err
	}
	if !actor.Owns(quiz.TeacherID) {
		return dto.SessionResponse{}, ErrForbidden
	}

	session := models.Session{
		TeacherID: actor.ID,
		QuizID:    quiz.ID,
		StartedAt: s.now().UTC(),
	}
	if err := s.create(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}
	session.Quiz = quiz

	recordActivity(ctx, s.activity, s.logger, actor, "session.started", "session", session.ID, map[string]interface{}{
		"quiz_id":   quiz.ID,
		"join_code": session.JoinCode,
	})

	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, actor Actor, id uint) (dto.SessionResponse, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if !actor.Owns(session.TeacherID) {
		return dto.SessionResponse{}, ErrForbidden
	}
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) GetByJoinCode(ctx context.Context, code string) (dto.SessionResponse, error) {
	session, err := s.repo.GetByJoinCode(ctx, normalizeJoinCode(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, actor Actor) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ListByTeacher(ctx, actor.listScope())
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, dto.NewSessionResponse(session))
	}
	return responses, nil
}

// ShareChallenge opens the session to other teachers. Sharing twice keeps
// the original challenge name.
func (s *sessionService) ShareChallenge(ctx context.Context, actor Actor, id uint) (dto.SessionResponse, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if !actor.Owns(session.TeacherID) {
		return dto.SessionResponse{}, ErrForbidden
	}
	if session.ChallengeSessionID != nil {
		return dto.SessionResponse{}, fmt.Errorf("%w: session already answers challenge %d", ErrNotChallenge, *session.ChallengeSessionID)
	}
	if session.IsChallenge {
		return dto.NewSessionResponse(session), nil
	}

	session.IsChallenge = true
	session.ChallengeName = session.Quiz.Title + challengeSuffix
	if err := s.repo.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, "session.challenge_shared", "session", session.ID, map[string]interface{}{
		"challenge_name": session.ChallengeName,
	})

	return dto.NewSessionResponse(session), nil
}

// AcceptChallenge starts a new session of the challenged quiz for the
// accepting teacher, linked back to the challenge.
func (s *sessionService) AcceptChallenge(ctx context.Context, actor Actor, challengeID uint) (dto.SessionResponse, error) {
	challenge, err := s.load(ctx, challengeID)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if !challenge.IsChallenge {
		return dto.SessionResponse{}, ErrNotChallenge
	}

	linked := challenge.ID
	session := models.Session{
		TeacherID:          actor.ID,
		QuizID:             challenge.QuizID,
		StartedAt:          s.now().UTC(),
		ChallengeName:      challenge.ChallengeName,
		ChallengeSessionID: &linked,
	}
	if err := s.create(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}
	session.Quiz = challenge.Quiz

	recordActivity(ctx, s.activity, s.logger, actor, "session.challenge_accepted", "session", session.ID, map[string]interface{}{
		"challenge_session_id": challenge.ID,
	})

	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) load(ctx context.Context, id uint) (models.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// create assigns a join code that is not in use and inserts the session.
// A code taken between the check and the insert triggers another attempt.
func (s *sessionService) create(ctx context.Context, session *models.Session) error {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		exists, err := s.repo.JoinCodeExists(ctx, code)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		session.ID = 0
		session.JoinCode = code
		err = s.repo.Create(ctx, session)
		if err == nil {
			return nil
		}
		if taken, checkErr := s.repo.JoinCodeExists(ctx, code); checkErr != nil || !taken {
			return err
		}
		s.logger.Debug().Str("join_code", code).Msg("join code taken concurrently, retrying")
	}
	return ErrJoinCodeExhausted
}

func generateJoinCode() (string, error) {
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	var b strings.Builder
	b.Grow(models.JoinCodeLength)
	for i := 0; i < models.JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
