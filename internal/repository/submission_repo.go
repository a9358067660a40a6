package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

var (
	// ErrStaleAnswerVersion signals that the submission was resubmitted after
	// the grading task was dispatched; the stale result must be discarded.
	ErrStaleAnswerVersion = errors.New("submission answer version changed")
	// ErrTeacherGradePresent signals that a teacher already graded the
	// current answer version; the AI result must not overwrite it.
	ErrTeacherGradePresent = errors.New("submission already graded by teacher")
)

// AIGrade carries the write-back of a background grading task.
type AIGrade struct {
	SubmissionID  uint
	AnswerVersion uint
	Score         float64
	Feedback      string
	Details       map[string]interface{}
}

// TeacherGrade carries a teacher's manual override.
type TeacherGrade struct {
	SubmissionID uint
	Score        float64
	Feedback     string
}

// SubmissionRepository defines data operations for assignment submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	// ApplyAIGrade re-reads the row inside a transaction and writes the
	// automated score, mirroring it into the teacher fields as an initial
	// default. The write is discarded when the answer version moved on or a
	// teacher grade is already in place.
	ApplyAIGrade(ctx context.Context, grade AIGrade) error
	// ApplyTeacherGrade unconditionally overwrites the human score fields.
	ApplyTeacherGrade(ctx context.Context, grade TeacherGrade) (models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) ApplyAIGrade(ctx context.Context, grade AIGrade) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.First(&submission, grade.SubmissionID).Error; err != nil {
			return err
		}

		if submission.AnswerVersion != grade.AnswerVersion {
			return ErrStaleAnswerVersion
		}
		if submission.HasTeacherGrade() {
			return ErrTeacherGradePresent
		}

		score := grade.Score
		gradedBy := models.GradedByAI
		submission.AIScore = &score
		submission.AIFeedback = grade.Feedback
		submission.TeacherScore = &score
		submission.TeacherFeedback = grade.Feedback
		submission.GradedBy = &gradedBy
		submission.GradeDetails = datatypes.JSONMap(grade.Details)

		return tx.Save(&submission).Error
	})
}

func (r *submissionRepository) ApplyTeacherGrade(ctx context.Context, grade TeacherGrade) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&submission, grade.SubmissionID).Error; err != nil {
			return err
		}

		score := grade.Score
		gradedBy := models.GradedByTeacher
		submission.TeacherScore = &score
		submission.TeacherFeedback = grade.Feedback
		submission.GradedBy = &gradedBy

		return tx.Save(&submission).Error
	})
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}
