package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

// TaskRepository persists authored questions.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uint) (models.Task, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Task, error)
	ListByTeacher(ctx context.Context, teacherID uint, mode string) ([]models.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository constructs a GORM-backed task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (r *taskRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) ListByTeacher(ctx context.Context, teacherID uint, mode string) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if teacherID > 0 {
		query = query.Where("teacher_id = ?", teacherID)
	}
	if mode != "" {
		query = query.Where("mode = ?", mode)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
