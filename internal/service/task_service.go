package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

var (
	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTask indicates an authored task cannot be scored as given.
	ErrInvalidTask = errors.New("invalid task")
)

const minChoices = 2

// TaskService manages the question bank.
type TaskService interface {
	Create(ctx context.Context, actor Actor, req dto.TaskCreateRequest) (dto.TaskResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.TaskResponse, error)
	List(ctx context.Context, actor Actor, req dto.TaskListRequest) ([]dto.TaskResponse, error)
	UploadImage(ctx context.Context, actor Actor, file *multipart.FileHeader) (dto.UploadResponse, error)
}

type taskService struct {
	repo      repository.TaskRepository
	builder   *taskBuilder
	uploads   UploadService
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewTaskService constructs a task service. uploads may be nil when no
// image storage is configured.
func NewTaskService(repo repository.TaskRepository, sources repository.SourceRepository, uploads UploadService, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) TaskService {
	return &taskService{
		repo:      repo,
		builder:   newTaskBuilder(sources),
		uploads:   uploads,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) Create(ctx context.Context, actor Actor, req dto.TaskCreateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TaskResponse{}, err
	}

	task, err := s.builder.build(ctx, actor, req)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, "task.created", "task", task.ID, map[string]interface{}{
		"mode": task.Mode,
	})

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) Get(ctx context.Context, actor Actor, id uint) (dto.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskResponse{}, ErrTaskNotFound
		}
		return dto.TaskResponse{}, err
	}
	if !actor.Owns(task.TeacherID) {
		return dto.TaskResponse{}, ErrForbidden
	}
	return dto.NewTaskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, actor Actor, req dto.TaskListRequest) ([]dto.TaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListByTeacher(ctx, actor.listScope(), req.Mode)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, dto.NewTaskResponse(task))
	}
	return responses, nil
}

func (s *taskService) UploadImage(ctx context.Context, actor Actor, file *multipart.FileHeader) (dto.UploadResponse, error) {
	if s.uploads == nil {
		return dto.UploadResponse{}, ErrUploadUnavailable
	}

	teacherID := actor.ID
	resp, err := s.uploads.Upload(ctx, file, &teacherID)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, "task.image_uploaded", "upload", 0, map[string]interface{}{
		"file_name": resp.FileName,
		"reused":    resp.Reused,
	})
	return resp, nil
}

// taskBuilder turns an authoring request into a scorable task. It is shared
// by the task bank and inline quiz authoring.
type taskBuilder struct {
	sources   repository.SourceRepository
	sanitizer *bluemonday.Policy
}

func newTaskBuilder(sources repository.SourceRepository) *taskBuilder {
	return &taskBuilder{sources: sources, sanitizer: bluemonday.StrictPolicy()}
}

func (b *taskBuilder) build(ctx context.Context, actor Actor, req dto.TaskCreateRequest) (models.Task, error) {
	mode, err := scoring.ParseMode(req.Mode)
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}

	prompt := cleanText(b.sanitizer, req.Prompt)
	if prompt == "" {
		return models.Task{}, fmt.Errorf("%w: prompt is required", ErrInvalidTask)
	}

	task := models.Task{
		TeacherID:     actor.ID,
		SourceID:      req.SourceID,
		Mode:          string(mode),
		Content:       cleanText(b.sanitizer, req.Content),
		Prompt:        prompt,
		AnswerChoices: datatypes.JSONSlice[string]{},
		DOKLevel:      req.DOKLevel,
	}
	if task.DOKLevel == 0 {
		task.DOKLevel = models.DefaultDOKLevel
	}

	var answer models.TaskAnswer
	switch mode {
	case scoring.ModeHighlight:
		answer, err = b.highlightAnswer(ctx, actor, &task, req)
	case scoring.ModeMultipleChoice:
		answer, err = b.choiceAnswer(&task, req)
	case scoring.ModeEvidenceHunter:
		answer, err = b.pointAnswer(&task, req)
	}
	if err != nil {
		return models.Task{}, err
	}

	task.CorrectAnswer = datatypes.NewJSONType(answer)
	return task, nil
}

// highlightAnswer needs a passage, taken from the request or from the
// linked source, and at least one evidence range inside it. A task that
// reuses the source text unchanged may rely on the source highlights.
func (b *taskBuilder) highlightAnswer(ctx context.Context, actor Actor, task *models.Task, req dto.TaskCreateRequest) (models.TaskAnswer, error) {
	// Ranges are measured on the text as sent; stored text must match it.
	if req.Content != "" && len(req.Ranges) > 0 && task.Content != req.Content {
		return models.TaskAnswer{}, fmt.Errorf("%w: content must be plain text without markup, entities or surrounding whitespace when ranges are given", ErrInvalidTask)
	}

	var fallback []scoring.TextRange
	if req.SourceID != nil {
		source, err := b.sources.GetByID(ctx, *req.SourceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.TaskAnswer{}, ErrSourceNotFound
			}
			return models.TaskAnswer{}, err
		}
		if !actor.Owns(source.TeacherID) {
			return models.TaskAnswer{}, ErrForbidden
		}
		if task.Content == "" {
			task.Content = source.TextContent
		}
		if task.Content == source.TextContent {
			fallback = source.Highlights
		}
	}
	if task.Content == "" {
		return models.TaskAnswer{}, fmt.Errorf("%w: highlight tasks need content or a source", ErrInvalidTask)
	}

	ranges, err := normalizeHighlights(req.Ranges, scoring.TextLength(task.Content))
	if err != nil {
		return models.TaskAnswer{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	if len(ranges) == 0 && len(fallback) == 0 {
		return models.TaskAnswer{}, fmt.Errorf("%w: at least one evidence range is required", ErrInvalidTask)
	}
	return models.TaskAnswer{Ranges: ranges}, nil
}

func (b *taskBuilder) choiceAnswer(task *models.Task, req dto.TaskCreateRequest) (models.TaskAnswer, error) {
	seen := make(map[string]struct{}, len(req.Choices))
	choices := make([]string, 0, len(req.Choices))
	for i, raw := range req.Choices {
		choice := cleanText(b.sanitizer, raw)
		if choice == "" {
			return models.TaskAnswer{}, fmt.Errorf("%w: choice %d is blank", ErrInvalidTask, i)
		}
		if _, dup := seen[choice]; dup {
			return models.TaskAnswer{}, fmt.Errorf("%w: choice %q appears twice", ErrInvalidTask, choice)
		}
		seen[choice] = struct{}{}
		choices = append(choices, choice)
	}
	if len(choices) < minChoices {
		return models.TaskAnswer{}, fmt.Errorf("%w: at least %d choices are required", ErrInvalidTask, minChoices)
	}
	if req.CorrectIndex == nil || *req.CorrectIndex < 0 || *req.CorrectIndex >= len(choices) {
		return models.TaskAnswer{}, fmt.Errorf("%w: correct_index must point at one of the choices", ErrInvalidTask)
	}

	task.AnswerChoices = datatypes.JSONSlice[string](choices)
	return models.TaskAnswer{Value: choices[*req.CorrectIndex]}, nil
}

func (b *taskBuilder) pointAnswer(task *models.Task, req dto.TaskCreateRequest) (models.TaskAnswer, error) {
	task.ImageURL = strings.TrimSpace(req.ImageURL)
	if task.ImageURL == "" {
		return models.TaskAnswer{}, fmt.Errorf("%w: evidence-hunter tasks need an image_url", ErrInvalidTask)
	}
	if req.Target == nil {
		return models.TaskAnswer{}, fmt.Errorf("%w: evidence-hunter tasks need a target", ErrInvalidTask)
	}

	target := scoring.PointTarget{X: req.Target.X, Y: req.Target.Y, Radius: req.Target.Radius}
	if err := target.Validate(); err != nil {
		return models.TaskAnswer{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	return models.TaskAnswer{Target: &target}, nil
}
