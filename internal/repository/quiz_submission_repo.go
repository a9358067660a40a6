package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// QuizSubmissionRepository persists quiz attempts.
type QuizSubmissionRepository interface {
	// CreateWithAnswers writes the attempt row and all of its answer rows in
	// one transaction. Partial state (answers without a score, or the
	// reverse) is never observable.
	CreateWithAnswers(ctx context.Context, submission *models.QuizSubmission) error
	GetByID(ctx context.Context, id uint) (models.QuizSubmission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.QuizSubmission, error)
}

type quizSubmissionRepository struct {
	db *gorm.DB
}

// NewQuizSubmissionRepository instantiates the repository.
func NewQuizSubmissionRepository(db *gorm.DB) QuizSubmissionRepository {
	return &quizSubmissionRepository{db: db}
}

func (r *quizSubmissionRepository) CreateWithAnswers(ctx context.Context, submission *models.QuizSubmission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answers := submission.Answers
		submission.Answers = nil

		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		for i := range answers {
			answers[i].QuizSubmissionID = submission.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}

		submission.Answers = answers
		return nil
	})
}

func (r *quizSubmissionRepository) GetByID(ctx context.Context, id uint) (models.QuizSubmission, error) {
	var submission models.QuizSubmission
	if err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&submission, id).Error; err != nil {
		return models.QuizSubmission{}, err
	}

	return submission, nil
}

func (r *quizSubmissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.QuizSubmission, error) {
	var submissions []models.QuizSubmission
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
