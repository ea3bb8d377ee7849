package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

// SessionRepository persists quiz sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uint) (models.Session, error)
	GetByJoinCode(ctx context.Context, code string) (models.Session, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Session, error)
	ListAccepted(ctx context.Context, challengeID uint) ([]models.Session, error)
	Update(ctx context.Context, session *models.Session) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a GORM-backed session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Omit("Quiz").Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Preload("Quiz").First(&session, id).Error; err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *sessionRepository) GetByJoinCode(ctx context.Context, code string) (models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Preload("Quiz").Where("join_code = ?", code).First(&session).Error; err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *sessionRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Select("id").Where("join_code = ?", code).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *sessionRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Session, error) {
	query := r.db.WithContext(ctx).Preload("Quiz").Order("started_at DESC").Order("id DESC")
	if teacherID > 0 {
		query = query.Where("teacher_id = ?", teacherID)
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) ListAccepted(ctx context.Context, challengeID uint) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.WithContext(ctx).
		Where("challenge_session_id = ?", challengeID).
		Order("started_at ASC").
		Order("id ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Omit("Quiz").Save(session).Error
}
