package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
	"github.com/openlearn-vn/openlearn-api/internal/service"
	"github.com/openlearn-vn/openlearn-api/internal/utils"
	"github.com/openlearn-vn/openlearn-api/pkg/ai"
)

type fixedGrader struct {
	score    float64
	feedback string
}

func (g fixedGrader) Grade(ctx context.Context, input ai.GradeInput) (ai.GradeResult, error) {
	return ai.GradeResult{Score: g.score, Feedback: g.feedback}, nil
}

type submissionFixture struct {
	app        *fiber.App
	db         *gorm.DB
	student    models.Student
	assignment models.Assignment
}

func fakeAuth(userID uint, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	}
}

func newSubmissionFixture(t *testing.T) submissionFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Student{},
		&models.Course{}, &models.Enrollment{},
		&models.Assignment{}, &models.Submission{},
	))

	user := models.User{FullName: "Handler Student", Email: t.Name() + "@test.local", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	student := models.Student{UserID: user.ID}
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{Title: "HTTP course", Status: models.CourseStatusActive}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, CourseID: course.ID, Status: models.EnrollmentStatusPaid}).Error)

	assignment := models.Assignment{CourseID: course.ID, Title: "Essay", Content: "Describe photosynthesis.", MaxScore: 10}
	require.NoError(t, db.Create(&assignment).Error)

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	grading := service.NewGradingService(fixedGrader{score: 7, feedback: "fine"}, func() *gorm.DB { return db }, submissionRepo, nil, validate, logger, service.GradingConfig{Synchronous: true})
	submissions := service.NewSubmissionService(submissionRepo, repository.NewAssignmentRepository(db), studentRepo, repository.NewEnrollmentRepository(db), grading, validate, logger)

	handler := NewSubmissionHandler(submissions, grading, studentRepo, logger)

	app := fiber.New()
	assignments := app.Group("/assignments", fakeAuth(user.ID, models.RoleStudent))
	handler.RegisterAssignmentRoutes(assignments, func(c *fiber.Ctx) error { return c.Next() })
	direct := app.Group("/submissions", fakeAuth(user.ID, models.RoleTeacher))
	handler.Register(direct, func(c *fiber.Ctx) error { return c.Next() })

	return submissionFixture{app: app, db: db, student: student, assignment: assignment}
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, utils.APIResponse) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(raw, &envelope))

	return resp.StatusCode, envelope
}

func TestSubmitAssignmentReturnsAccepted(t *testing.T) {
	fixture := newSubmissionFixture(t)

	status, envelope := postJSON(t, fixture.app, fmt.Sprintf("/assignments/%d/submit", fixture.assignment.ID), dto.AssignmentSubmitRequest{
		Answer: "Plants convert sunlight into chemical energy.",
	})

	require.Equal(t, fiber.StatusAccepted, status)
	require.True(t, envelope.Success)

	// Synchronous grading means the row is already scored by the time we
	// look, even though the HTTP response reported "processing".
	var submission models.Submission
	require.NoError(t, fixture.db.Where("student_id = ?", fixture.student.ID).First(&submission).Error)
	require.NotNil(t, submission.AIScore)
	require.Equal(t, 7.0, *submission.AIScore)
}

func TestSubmitAssignmentUnknownAssignment(t *testing.T) {
	fixture := newSubmissionFixture(t)

	status, envelope := postJSON(t, fixture.app, "/assignments/9999/submit", dto.AssignmentSubmitRequest{Answer: "hello"})

	require.Equal(t, fiber.StatusNotFound, status)
	require.False(t, envelope.Success)
}

func TestTeacherGradeEndpointAppliesOverride(t *testing.T) {
	fixture := newSubmissionFixture(t)

	_, _ = postJSON(t, fixture.app, fmt.Sprintf("/assignments/%d/submit", fixture.assignment.ID), dto.AssignmentSubmitRequest{Answer: "draft"})

	var submission models.Submission
	require.NoError(t, fixture.db.Where("student_id = ?", fixture.student.ID).First(&submission).Error)

	status, envelope := postJSON(t, fixture.app, fmt.Sprintf("/submissions/%d/grade", submission.ID), dto.TeacherGradeRequest{Score: 9, Feedback: "Strong work"})
	require.Equal(t, fiber.StatusOK, status)
	require.True(t, envelope.Success)

	require.NoError(t, fixture.db.First(&submission, submission.ID).Error)
	require.Equal(t, models.GradedByTeacher, *submission.GradedBy)
	require.Equal(t, 9.0, *submission.TeacherScore)
}

func TestTeacherGradeEndpointRejectsScoreAboveMax(t *testing.T) {
	fixture := newSubmissionFixture(t)

	_, _ = postJSON(t, fixture.app, fmt.Sprintf("/assignments/%d/submit", fixture.assignment.ID), dto.AssignmentSubmitRequest{Answer: "draft"})

	var submission models.Submission
	require.NoError(t, fixture.db.Where("student_id = ?", fixture.student.ID).First(&submission).Error)

	status, envelope := postJSON(t, fixture.app, fmt.Sprintf("/submissions/%d/grade", submission.ID), dto.TeacherGradeRequest{Score: 11})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.False(t, envelope.Success)
}
