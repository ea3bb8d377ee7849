package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

// SourceRepository persists reading passages.
type SourceRepository interface {
	Create(ctx context.Context, source *models.Source) error
	GetByID(ctx context.Context, id uint) (models.Source, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Source, error)
	UpdateHighlights(ctx context.Context, id uint, highlights []scoring.TextRange) error
}

type sourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository constructs a GORM-backed source repository.
func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) Create(ctx context.Context, source *models.Source) error {
	return r.db.WithContext(ctx).Create(source).Error
}

func (r *sourceRepository) GetByID(ctx context.Context, id uint) (models.Source, error) {
	var source models.Source
	if err := r.db.WithContext(ctx).First(&source, id).Error; err != nil {
		return models.Source{}, err
	}
	return source, nil
}

func (r *sourceRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Source, error) {
	var sources []models.Source
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if teacherID > 0 {
		query = query.Where("teacher_id = ?", teacherID)
	}
	if err := query.Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *sourceRepository) UpdateHighlights(ctx context.Context, id uint, highlights []scoring.TextRange) error {
	result := r.db.WithContext(ctx).Model(&models.Source{}).
		Where("id = ?", id).
		Update("highlights", models.NewHighlights(highlights))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
