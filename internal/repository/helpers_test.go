package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Student{},
		&models.Course{}, &models.Enrollment{},
		&models.Quiz{}, &models.Question{}, &models.QuizSubmission{}, &models.QuizAnswer{},
		&models.Assignment{}, &models.Submission{},
	))

	return db
}

func createSubmission(t *testing.T, db *gorm.DB, version uint) models.Submission {
	t.Helper()

	assignment := models.Assignment{CourseID: 1, Title: "Essay", MaxScore: 10}
	require.NoError(t, db.Create(&assignment).Error)

	user := models.User{FullName: "Repo Student", Email: fmt.Sprintf("%s@test.local", t.Name()), Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	student := models.Student{UserID: user.ID}
	require.NoError(t, db.Create(&student).Error)

	submission := models.Submission{
		AssignmentID:  assignment.ID,
		StudentID:     student.ID,
		Answer:        "an answer",
		AnswerVersion: version,
	}
	require.NoError(t, db.Create(&submission).Error)

	return submission
}
