package service

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// testDB opens an isolated in-memory database per test. The shared-cache
// DSN keeps every pooled connection on the same database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Student{}, &models.Teacher{}, &models.Parent{},
		&models.Course{}, &models.Lesson{}, &models.Enrollment{},
		&models.Quiz{}, &models.Question{}, &models.QuizSubmission{}, &models.QuizAnswer{},
		&models.Assignment{}, &models.Submission{}, &models.Notification{},
	))

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, email string) models.Student {
	t.Helper()

	user := models.User{FullName: "Test Student", Email: email, Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)

	student := models.Student{UserID: user.ID, StudentCode: "S-" + email}
	require.NoError(t, db.Create(&student).Error)
	student.User = user

	return student
}

func seedCourse(t *testing.T, db *gorm.DB, title string) models.Course {
	t.Helper()

	course := models.Course{Title: title, Status: models.CourseStatusActive, TeacherID: 1}
	require.NoError(t, db.Create(&course).Error)

	return course
}

func seedEnrollment(t *testing.T, db *gorm.DB, studentID, courseID uint) models.Enrollment {
	t.Helper()

	enrollment := models.Enrollment{StudentID: studentID, CourseID: courseID, Status: models.EnrollmentStatusPaid}
	require.NoError(t, db.Create(&enrollment).Error)

	return enrollment
}

func seedAssignment(t *testing.T, db *gorm.DB, courseID uint, maxScore float64) models.Assignment {
	t.Helper()

	assignment := models.Assignment{
		CourseID: courseID,
		Title:    "Essay",
		Content:  "Explain the water cycle.",
		MaxScore: maxScore,
	}
	require.NoError(t, db.Create(&assignment).Error)

	return assignment
}

func seedQuiz(t *testing.T, db *gorm.DB, courseID uint, correct ...string) models.Quiz {
	t.Helper()

	quiz := models.Quiz{CourseID: courseID, Title: "Unit test quiz"}
	require.NoError(t, db.Create(&quiz).Error)

	for i, answer := range correct {
		question := models.Question{
			QuizID:        quiz.ID,
			Content:       fmt.Sprintf("Question %d", i+1),
			OptionA:       "first",
			OptionB:       "second",
			OptionC:       "third",
			OptionD:       "fourth",
			CorrectAnswer: answer,
		}
		require.NoError(t, db.Create(&question).Error)
		quiz.Questions = append(quiz.Questions, question)
	}

	return quiz
}
