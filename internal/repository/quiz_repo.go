package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

// QuizSummary is a quiz row with its question count.
type QuizSummary struct {
	models.Quiz
	QuestionCount int64
}

// QuizRepository persists quizzes and their ordered questions.
type QuizRepository interface {
	CreateWithTasks(ctx context.Context, quiz *models.Quiz, tasks []models.Task) error
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]QuizSummary, error)
	GetQuestion(ctx context.Context, quizID, questionID uint) (models.QuizQuestion, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository constructs a GORM-backed quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

// CreateWithTasks stores the quiz, any tasks that are not persisted yet and
// one question per task in slice order, all or nothing.
func (r *quizRepository) CreateWithTasks(ctx context.Context, quiz *models.Quiz, tasks []models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(quiz).Error; err != nil {
			return err
		}

		questions := make([]models.QuizQuestion, 0, len(tasks))
		for i := range tasks {
			if tasks[i].ID == 0 {
				if err := tx.Create(&tasks[i]).Error; err != nil {
					return err
				}
			}
			questions = append(questions, models.QuizQuestion{
				QuizID:   quiz.ID,
				TaskID:   tasks[i].ID,
				OrderNum: i + 1,
				Points:   models.DefaultQuestionPoints,
			})
		}

		if len(questions) > 0 {
			if err := tx.Omit("Task").Create(&questions).Error; err != nil {
				return err
			}
		}

		for i := range questions {
			questions[i].Task = tasks[i]
		}
		quiz.Questions = questions
		return nil
	})
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Questions.Task").
		First(&quiz, id).Error
	if err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]QuizSummary, error) {
	query := r.db.WithContext(ctx).Model(&models.Quiz{}).Order("created_at DESC").Order("id DESC")
	if teacherID > 0 {
		query = query.Where("teacher_id = ?", teacherID)
	}

	var quizzes []models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return []QuizSummary{}, nil
	}

	ids := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		ids = append(ids, quiz.ID)
	}

	var rows []struct {
		QuizID uint
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Select("quiz_id, COUNT(*) AS total").
		Where("quiz_id IN ?", ids).
		Group("quiz_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.QuizID] = row.Total
	}

	summaries := make([]QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, QuizSummary{Quiz: quiz, QuestionCount: counts[quiz.ID]})
	}
	return summaries, nil
}

func (r *quizRepository) GetQuestion(ctx context.Context, quizID, questionID uint) (models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := r.db.WithContext(ctx).
		Preload("Task").
		Where("quiz_id = ? AND id = ?", quizID, questionID).
		First(&question).Error
	if err != nil {
		return models.QuizQuestion{}, err
	}
	return question, nil
}
