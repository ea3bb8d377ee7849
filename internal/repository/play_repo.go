package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

// PlayRepository persists scored answers.
type PlayRepository interface {
	// CreateOnce inserts the play unless the student already answered the
	// question in that session. created is false for the duplicate case.
	CreateOnce(ctx context.Context, play *models.Play) (created bool, err error)
	ListBySession(ctx context.Context, sessionID uint) ([]models.Play, error)
	ListBySessions(ctx context.Context, sessionIDs []uint) ([]models.Play, error)
}

type playRepository struct {
	db *gorm.DB
}

// NewPlayRepository constructs a GORM-backed play repository.
func NewPlayRepository(db *gorm.DB) PlayRepository {
	return &playRepository{db: db}
}

func (r *playRepository) CreateOnce(ctx context.Context, play *models.Play) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "quiz_question_id"}, {Name: "student_name"}},
		DoNothing: true,
	}).Create(play)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *playRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.Play, error) {
	return r.ListBySessions(ctx, []uint{sessionID})
}

func (r *playRepository) ListBySessions(ctx context.Context, sessionIDs []uint) ([]models.Play, error) {
	if len(sessionIDs) == 0 {
		return []models.Play{}, nil
	}

	var plays []models.Play
	if err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&plays).Error; err != nil {
		return nil, err
	}
	return plays, nil
}
