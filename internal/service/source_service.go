package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

var (
	// ErrSourceNotFound indicates the source does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrInvalidHighlight indicates a highlight falls outside the source text.
	ErrInvalidHighlight = errors.New("highlight outside source text")
	// ErrEmptySource indicates nothing was left after sanitizing.
	ErrEmptySource = errors.New("source text empty after sanitization")
)

// SourceService manages the text passages teachers mark evidence in.
type SourceService interface {
	Create(ctx context.Context, actor Actor, req dto.SourceCreateRequest) (dto.SourceResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SourceResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.SourceResponse, error)
	SaveHighlights(ctx context.Context, actor Actor, id uint, req dto.SourceHighlightsRequest) (dto.SourceResponse, error)
}

type sourceService struct {
	repo      repository.SourceRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewSourceService constructs a source service.
func NewSourceService(repo repository.SourceRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) SourceService {
	return &sourceService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "source_service").Logger(),
	}
}

func (s *sourceService) Create(ctx context.Context, actor Actor, req dto.SourceCreateRequest) (dto.SourceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SourceResponse{}, err
	}

	title := cleanText(s.sanitizer, req.Title)
	text := cleanText(s.sanitizer, req.TextContent)
	if title == "" || text == "" {
		return dto.SourceResponse{}, ErrEmptySource
	}

	source := models.Source{
		TeacherID:   actor.ID,
		Type:        models.SourceTypeText,
		Title:       title,
		TextContent: text,
		Highlights:  models.NewHighlights(nil),
	}
	if err := s.repo.Create(ctx, &source); err != nil {
		return dto.SourceResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, "source.created", "source", source.ID, map[string]interface{}{
		"title":       source.Title,
		"text_length": source.TextLength(),
	})

	return dto.NewSourceResponse(source), nil
}

func (s *sourceService) Get(ctx context.Context, actor Actor, id uint) (dto.SourceResponse, error) {
	source, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.SourceResponse{}, err
	}
	return dto.NewSourceResponse(source), nil
}

func (s *sourceService) List(ctx context.Context, actor Actor) ([]dto.SourceResponse, error) {
	sources, err := s.repo.ListByTeacher(ctx, actor.listScope())
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SourceResponse, 0, len(sources))
	for _, source := range sources {
		responses = append(responses, dto.NewSourceResponse(source))
	}
	return responses, nil
}

// SaveHighlights replaces the source's evidence highlights. Selections may
// arrive in either direction; empty ones are dropped.
func (s *sourceService) SaveHighlights(ctx context.Context, actor Actor, id uint, req dto.SourceHighlightsRequest) (dto.SourceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SourceResponse{}, err
	}

	source, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.SourceResponse{}, err
	}

	highlights, err := normalizeHighlights(req.Highlights, source.TextLength())
	if err != nil {
		return dto.SourceResponse{}, err
	}

	if err := s.repo.UpdateHighlights(ctx, source.ID, highlights); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SourceResponse{}, ErrSourceNotFound
		}
		return dto.SourceResponse{}, err
	}
	source.Highlights = models.NewHighlights(highlights)

	recordActivity(ctx, s.activity, s.logger, actor, "source.highlighted", "source", source.ID, map[string]interface{}{
		"highlights": len(highlights),
	})

	return dto.NewSourceResponse(source), nil
}

func (s *sourceService) load(ctx context.Context, actor Actor, id uint) (models.Source, error) {
	source, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Source{}, ErrSourceNotFound
		}
		return models.Source{}, err
	}
	if !actor.Owns(source.TeacherID) {
		return models.Source{}, ErrForbidden
	}
	return source, nil
}

// normalizeHighlights orders each range, drops empty ones and duplicates,
// and checks every range against the text length.
func normalizeHighlights(payload []dto.RangePayload, textLength int) ([]scoring.TextRange, error) {
	seen := make(map[scoring.TextRange]struct{}, len(payload))
	ranges := make([]scoring.TextRange, 0, len(payload))
	for _, item := range payload {
		r := scoring.NormalizeRange(item.Start, item.End)
		if r == nil {
			continue
		}
		if !r.Within(textLength) {
			return nil, fmt.Errorf("%w: [%d,%d) exceeds length %d", ErrInvalidHighlight, r.Start, r.End, textLength)
		}
		if _, dup := seen[*r]; dup {
			continue
		}
		seen[*r] = struct{}{}
		ranges = append(ranges, *r)
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start == ranges[j].Start {
			return ranges[i].End < ranges[j].End
		}
		return ranges[i].Start < ranges[j].Start
	})
	return ranges, nil
}
