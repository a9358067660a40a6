package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// StudentRepository resolves student profiles.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("User").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

// ParentRepository resolves parent profiles and their children.
type ParentRepository interface {
	GetByUserID(ctx context.Context, userID uint) (models.Parent, error)
}

type parentRepository struct {
	db *gorm.DB
}

// NewParentRepository instantiates the repository.
func NewParentRepository(db *gorm.DB) ParentRepository {
	return &parentRepository{db: db}
}

func (r *parentRepository) GetByUserID(ctx context.Context, userID uint) (models.Parent, error) {
	var parent models.Parent
	if err := r.db.WithContext(ctx).
		Preload("Children").
		Preload("Children.User").
		Where("user_id = ?", userID).
		First(&parent).Error; err != nil {
		return models.Parent{}, err
	}

	return parent, nil
}
