package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
)

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEmpty indicates a quiz was submitted without questions.
	ErrQuizEmpty = errors.New("quiz needs at least one question")
)

// QuizService assembles tasks into ordered quizzes.
type QuizService interface {
	Create(ctx context.Context, actor Actor, req dto.QuizCreateRequest) (dto.QuizResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.QuizResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.QuizSummaryResponse, error)
}

type quizService struct {
	repo      repository.QuizRepository
	tasks     repository.TaskRepository
	builder   *taskBuilder
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuizService constructs a quiz service.
func NewQuizService(repo repository.QuizRepository, tasks repository.TaskRepository, sources repository.SourceRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) QuizService {
	return &quizService{
		repo:      repo,
		tasks:     tasks,
		builder:   newTaskBuilder(sources),
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "quiz_service").Logger(),
	}
}

// Create stores the quiz. Inline questions become new tasks and come first,
// followed by the referenced bank tasks in request order.
func (s *quizService) Create(ctx context.Context, actor Actor, req dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	if len(req.Questions)+len(req.TaskIDs) == 0 {
		return dto.QuizResponse{}, ErrQuizEmpty
	}

	title := cleanText(s.sanitizer, req.Title)
	if title == "" {
		return dto.QuizResponse{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}

	tasks := make([]models.Task, 0, len(req.Questions)+len(req.TaskIDs))
	for i, question := range req.Questions {
		task, err := s.builder.build(ctx, actor, question)
		if err != nil {
			return dto.QuizResponse{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		tasks = append(tasks, task)
	}

	existing, err := s.loadTasks(ctx, actor, req.TaskIDs)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	tasks = append(tasks, existing...)

	quiz := models.Quiz{
		TeacherID:   actor.ID,
		Title:       title,
		Description: cleanText(s.sanitizer, req.Description),
	}
	if err := s.repo.CreateWithTasks(ctx, &quiz, tasks); err != nil {
		return dto.QuizResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, "quiz.created", "quiz", quiz.ID, map[string]interface{}{
		"title":     quiz.Title,
		"questions": len(tasks),
	})

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Get(ctx context.Context, actor Actor, id uint) (dto.QuizResponse, error) {
	quiz, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}
	if !actor.Owns(quiz.TeacherID) {
		return dto.QuizResponse{}, ErrForbidden
	}
	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) List(ctx context.Context, actor Actor) ([]dto.QuizSummaryResponse, error) {
	summaries, err := s.repo.ListByTeacher(ctx, actor.listScope())
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuizSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, dto.NewQuizSummaryResponse(summary))
	}
	return responses, nil
}

// loadTasks resolves bank tasks in the order requested. A task may appear
// more than once.
func (s *quizService) loadTasks(ctx context.Context, actor Actor, ids []uint) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.tasks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Task, len(found))
	for _, task := range found {
		byID[task.ID] = task
	}

	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		task, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrTaskNotFound, id)
		}
		if !actor.Owns(task.TeacherID) {
			return nil, ErrForbidden
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
