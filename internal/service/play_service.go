package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/observability"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

var (
	// ErrQuestionNotFound indicates the question is not part of the session's quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadyAnswered indicates the student already answered the question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrStudentNameRequired indicates the name was blank after trimming.
	ErrStudentNameRequired = errors.New("student name is required")
)

// PlayService is the student side of a session: joining, viewing questions
// and submitting answers for scoring.
type PlayService interface {
	Join(ctx context.Context, req dto.JoinRequest) (dto.JoinResponse, error)
	ViewQuestion(ctx context.Context, sessionID, questionID uint) (dto.PlayQuestionResponse, error)
	Preview(ctx context.Context, sessionID, questionID uint, req dto.PreviewRequest) (dto.PreviewResponse, error)
	Submit(ctx context.Context, sessionID, questionID uint, req dto.SubmitRequest) (dto.SubmitResponse, error)
}

// PlayDependencies groups the collaborators of the play service.
type PlayDependencies struct {
	Sessions  repository.SessionRepository
	Quizzes   repository.QuizRepository
	Sources   repository.SourceRepository
	Plays     repository.PlayRepository
	Views     ViewStore
	Results   ResultsRecorder
	Events    PlayEventPublisher
	Validator *validator.Validate
	ViewTTL   time.Duration
}

type playService struct {
	sessions  repository.SessionRepository
	quizzes   repository.QuizRepository
	sources   repository.SourceRepository
	plays     repository.PlayRepository
	views     ViewStore
	results   ResultsRecorder
	events    PlayEventPublisher
	validator *validator.Validate
	viewTTL   time.Duration
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	rng       *rand.Rand
}

// NewPlayService constructs the play service.
func NewPlayService(deps PlayDependencies, logger zerolog.Logger) PlayService {
	if deps.Views == nil {
		deps.Views = NewMemoryViewStore()
	}
	if deps.ViewTTL <= 0 {
		deps.ViewTTL = 2 * time.Hour
	}
	return &playService{
		sessions:  deps.Sessions,
		quizzes:   deps.Quizzes,
		sources:   deps.Sources,
		plays:     deps.Plays,
		views:     deps.Views,
		results:   deps.Results,
		events:    deps.Events,
		validator: deps.Validator,
		viewTTL:   deps.ViewTTL,
		logger:    logger.With().Str("component", "play_service").Logger(),
		tracer:    observability.Tracer("service/play"),
		now:       time.Now,
	}
}

func (s *playService) Join(ctx context.Context, req dto.JoinRequest) (dto.JoinResponse, error) {
	req.JoinCode = normalizeJoinCode(req.JoinCode)
	req.StudentName = normalizeStudentName(req.StudentName)
	if err := s.validator.Struct(req); err != nil {
		return dto.JoinResponse{}, err
	}

	session, err := s.sessions.GetByJoinCode(ctx, req.JoinCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JoinResponse{}, ErrSessionNotFound
		}
		return dto.JoinResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, session.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JoinResponse{}, ErrQuizNotFound
		}
		return dto.JoinResponse{}, err
	}

	questions := make([]dto.PlayQuestionSummary, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questions = append(questions, dto.PlayQuestionSummary{
			ID:       question.ID,
			OrderNum: question.OrderNum,
			Points:   question.Points,
			Mode:     question.Task.Mode,
		})
	}

	plays, err := s.plays.ListBySession(ctx, session.ID)
	if err != nil {
		return dto.JoinResponse{}, err
	}
	answered := []uint{}
	for _, play := range plays {
		if play.StudentName == req.StudentName {
			answered = append(answered, play.QuizQuestionID)
		}
	}

	return dto.JoinResponse{
		SessionID:           session.ID,
		QuizID:              quiz.ID,
		QuizTitle:           quiz.Title,
		StudentName:         req.StudentName,
		IsChallenge:         session.IsChallenge || session.ChallengeSessionID != nil,
		ChallengeName:       session.ChallengeName,
		Questions:           questions,
		AnsweredQuestionIDs: answered,
	}, nil
}

// ViewQuestion returns the student view of a question. Multiple-choice
// questions get a fresh choice order per view, remembered under the
// returned view token.
func (s *playService) ViewQuestion(ctx context.Context, sessionID, questionID uint) (dto.PlayQuestionResponse, error) {
	_, question, err := s.loadQuestion(ctx, sessionID, questionID)
	if err != nil {
		return dto.PlayQuestionResponse{}, err
	}

	task := question.Task
	resp := dto.PlayQuestionResponse{
		ID:        question.ID,
		SessionID: sessionID,
		OrderNum:  question.OrderNum,
		Points:    question.Points,
		Mode:      task.Mode,
		Content:   task.Content,
		Prompt:    task.Prompt,
		ImageURL:  task.ImageURL,
	}

	if task.Mode == string(scoring.ModeMultipleChoice) {
		presented, perm := scoring.Shuffle(task.AnswerChoices, s.rng)
		token := uuid.NewString()
		view := ChoiceView{
			SessionID:   sessionID,
			QuestionID:  question.ID,
			Permutation: perm,
			IssuedAt:    s.now().UTC(),
		}
		if err := s.views.Save(ctx, token, view, s.viewTTL); err != nil {
			return dto.PlayQuestionResponse{}, err
		}
		resp.Choices = presented
		resp.ViewToken = token
	}

	return resp, nil
}

// Preview renders the passage with the student's current selection only.
func (s *playService) Preview(ctx context.Context, sessionID, questionID uint, req dto.PreviewRequest) (dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PreviewResponse{}, err
	}

	_, question, err := s.loadQuestion(ctx, sessionID, questionID)
	if err != nil {
		return dto.PreviewResponse{}, err
	}
	if question.Task.Mode != string(scoring.ModeHighlight) {
		return dto.PreviewResponse{}, fmt.Errorf("%w: only highlight questions have a passage", scoring.ErrModeMismatch)
	}

	selection := scoring.NormalizeRange(req.Anchor, req.Focus)
	return dto.PreviewResponse{
		Range:    selection,
		Segments: scoring.RenderHighlights(question.Task.Content, selection, nil, false),
	}, nil
}

// Submit scores one answer and stores it. Each student answers a question
// of a session once; later attempts fail with ErrAlreadyAnswered.
func (s *playService) Submit(ctx context.Context, sessionID, questionID uint, req dto.SubmitRequest) (dto.SubmitResponse, error) {
	req.StudentName = normalizeStudentName(req.StudentName)
	if req.StudentName == "" {
		return dto.SubmitResponse{}, ErrStudentNameRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmitResponse{}, err
	}

	_, question, err := s.loadQuestion(ctx, sessionID, questionID)
	if err != nil {
		return dto.SubmitResponse{}, err
	}
	task := question.Task

	ctx, span := s.tracer.Start(ctx, "play.submit", trace.WithAttributes(
		attribute.Int("session.id", int(sessionID)),
		attribute.Int("question.id", int(questionID)),
		attribute.String("question.mode", task.Mode),
	))
	defer span.End()

	ref, err := s.reference(ctx, task)
	if err != nil {
		return dto.SubmitResponse{}, s.scoringFailed(span, task.Mode, err)
	}

	sub, selection, err := s.submission(ctx, sessionID, question, ref.Mode, req)
	if err != nil {
		return dto.SubmitResponse{}, s.scoringFailed(span, task.Mode, err)
	}

	result, err := scoring.Score(ref, sub)
	if err != nil {
		return dto.SubmitResponse{}, s.scoringFailed(span, task.Mode, err)
	}
	span.SetAttributes(attribute.Int("play.score", result.Score), attribute.Bool("play.correct", result.Correct))

	play := models.Play{
		SessionID:      sessionID,
		QuizQuestionID: question.ID,
		StudentName:    req.StudentName,
		Mode:           string(ref.Mode),
		Selections:     datatypes.NewJSONType(selection),
		Score:          result.Score,
		Correct:        result.Correct,
		CreatedAt:      s.now().UTC(),
	}
	created, err := s.plays.CreateOnce(ctx, &play)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return dto.SubmitResponse{}, err
	}
	if !created {
		span.SetStatus(codes.Error, "already answered")
		return dto.SubmitResponse{}, ErrAlreadyAnswered
	}

	observability.PlaysScored().WithLabelValues(play.Mode, strconv.FormatBool(play.Correct)).Inc()
	observability.PlayScore().WithLabelValues(play.Mode).Observe(float64(play.Score))

	if req.ViewToken != "" {
		if err := s.views.Delete(ctx, req.ViewToken); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drop question view")
		}
	}
	if s.results != nil {
		s.results.RecordPlay(ctx, play)
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, play); err != nil {
			s.logger.Warn().Err(err).Uint("play_id", play.ID).Msg("failed to publish play event")
		}
	}

	resp := dto.SubmitResponse{
		PlayID:      play.ID,
		SessionID:   sessionID,
		QuestionID:  question.ID,
		StudentName: play.StudentName,
		Mode:        play.Mode,
		Score:       play.Score,
		Correct:     play.Correct,
		AnsweredAt:  play.CreatedAt,
	}
	switch ref.Mode {
	case scoring.ModeHighlight:
		resp.Review = scoring.RenderHighlights(task.Content, sub.Range, ref.Ranges, true)
	case scoring.ModeMultipleChoice:
		resp.CorrectValue = ref.CorrectValue
	}
	span.SetStatus(codes.Ok, "scored")
	return resp, nil
}

func (s *playService) loadQuestion(ctx context.Context, sessionID, questionID uint) (models.Session, models.QuizQuestion, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, models.QuizQuestion{}, ErrSessionNotFound
		}
		return models.Session{}, models.QuizQuestion{}, err
	}

	question, err := s.quizzes.GetQuestion(ctx, session.QuizID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, models.QuizQuestion{}, ErrQuestionNotFound
		}
		return models.Session{}, models.QuizQuestion{}, err
	}
	return session, question, nil
}

// reference builds the answer key. Highlight tasks without ranges of their
// own fall back to the highlights saved on their source.
func (s *playService) reference(ctx context.Context, task models.Task) (scoring.Reference, error) {
	var fallback []scoring.TextRange
	if task.Mode == string(scoring.ModeHighlight) && len(task.CorrectAnswer.Data().Ranges) == 0 && task.SourceID != nil && s.sources != nil {
		source, err := s.sources.GetByID(ctx, *task.SourceID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return scoring.Reference{}, err
		}
		fallback = source.Highlights
	}
	return task.Reference(fallback)
}

// submission converts the request into scoring input and the stored
// selection. A selected index is resolved through the choice order saved
// for the view token.
func (s *playService) submission(ctx context.Context, sessionID uint, question models.QuizQuestion, mode scoring.Mode, req dto.SubmitRequest) (scoring.Submission, models.PlaySelection, error) {
	var sub scoring.Submission
	if strings.TrimSpace(req.Mode) != "" {
		parsed, err := scoring.ParseMode(req.Mode)
		if err != nil {
			return scoring.Submission{}, models.PlaySelection{}, err
		}
		sub.Mode = parsed
	}
	if req.Range != nil {
		r := req.Range.TextRange()
		if mode == scoring.ModeHighlight {
			if err := r.Validate(); err != nil {
				return scoring.Submission{}, models.PlaySelection{}, err
			}
			if length := scoring.TextLength(question.Task.Content); !r.Within(length) {
				return scoring.Submission{}, models.PlaySelection{}, fmt.Errorf("%w: range [%d,%d) ends past the %d-unit passage", scoring.ErrMalformedSubmission, r.Start, r.End, length)
			}
		}
		sub.Range = &r
	}
	if req.Point != nil {
		sub.Point = &scoring.Point{X: req.Point.X, Y: req.Point.Y}
	}
	sub.SelectedIndex = req.SelectedIndex

	selection := models.PlaySelection{
		Range:         sub.Range,
		SelectedIndex: sub.SelectedIndex,
		Point:         sub.Point,
	}

	if mode == scoring.ModeMultipleChoice && sub.SelectedIndex != nil {
		presented, err := s.presentedChoices(ctx, sessionID, question, req.ViewToken)
		if err != nil {
			return scoring.Submission{}, models.PlaySelection{}, err
		}
		sub.Presented = presented
		selection.Presented = presented
		if idx := *sub.SelectedIndex; idx >= 0 && idx < len(presented) {
			selection.SelectedValue = presented[idx]
		}
	}
	return sub, selection, nil
}

func (s *playService) presentedChoices(ctx context.Context, sessionID uint, question models.QuizQuestion, token string) ([]string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: view_token is required with selected_index", scoring.ErrMalformedSubmission)
	}
	view, err := s.views.Load(ctx, token)
	if err != nil {
		if errors.Is(err, ErrViewNotFound) {
			return nil, fmt.Errorf("%w: %v", scoring.ErrMalformedSubmission, err)
		}
		return nil, err
	}
	if view.SessionID != sessionID || view.QuestionID != question.ID {
		return nil, fmt.Errorf("%w: view token belongs to another question", scoring.ErrMalformedSubmission)
	}

	presented, err := scoring.ApplyPermutation(question.Task.AnswerChoices, view.Permutation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scoring.ErrMalformedSubmission, err)
	}
	return presented, nil
}

func (s *playService) scoringFailed(span trace.Span, mode string, err error) error {
	observability.ScoringErrors().WithLabelValues(mode, scoringErrorReason(err)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "scoring failed")
	return err
}

// IsScoringError reports whether err means the answer could not be scored
// as submitted.
func IsScoringError(err error) bool {
	return scoringErrorReason(err) != "other"
}

func scoringErrorReason(err error) string {
	switch {
	case errors.Is(err, scoring.ErrUnknownMode):
		return "unknown_mode"
	case errors.Is(err, scoring.ErrModeMismatch):
		return "mode_mismatch"
	case errors.Is(err, scoring.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, scoring.ErrInvalidPermutation):
		return "invalid_permutation"
	case errors.Is(err, scoring.ErrMalformedSubmission):
		return "malformed"
	default:
		return "other"
	}
}

func normalizeStudentName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
