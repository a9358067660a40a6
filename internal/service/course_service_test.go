package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

func newCourseService(t *testing.T) (CourseService, *gorm.DB) {
	t.Helper()

	db := testDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCourseService(repository.NewCourseRepository(db), repository.NewEnrollmentRepository(db), validate, testLogger())

	return svc, db
}

func TestCourseServiceEnrollGrantsAccess(t *testing.T) {
	svc, db := newCourseService(t)
	student := seedStudent(t, db, "joiner@test.local")

	course, err := svc.Create(context.Background(), dto.CourseCreateRequest{Title: "Physics", Price: 49.9, TeacherID: 1})
	require.NoError(t, err)

	enrollment, err := svc.Enroll(context.Background(), course.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusPaid, enrollment.Status)
	require.Equal(t, 49.9, enrollment.Amount)

	enrollments, err := svc.ListEnrollments(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
}

func TestCourseServiceEnrollTwiceRejected(t *testing.T) {
	svc, db := newCourseService(t)
	student := seedStudent(t, db, "repeat@test.local")
	course := seedCourse(t, db, "Physics")

	_, err := svc.Enroll(context.Background(), course.ID, student.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), course.ID, student.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestCourseServiceEnrollArchivedCourse(t *testing.T) {
	svc, db := newCourseService(t)
	student := seedStudent(t, db, "late@test.local")

	course := models.Course{Title: "Retired", Status: models.CourseStatusArchived}
	require.NoError(t, db.Create(&course).Error)

	_, err := svc.Enroll(context.Background(), course.ID, student.ID)
	require.ErrorIs(t, err, ErrCourseArchived)
}

func TestCourseServiceListShowsActiveOnly(t *testing.T) {
	svc, db := newCourseService(t)
	seedCourse(t, db, "Visible")
	require.NoError(t, db.Create(&models.Course{Title: "Hidden", Status: models.CourseStatusArchived}).Error)

	courses, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "Visible", courses[0].Title)
}

func TestCourseServiceAddLesson(t *testing.T) {
	svc, db := newCourseService(t)
	course := seedCourse(t, db, "Geometry")

	updated, err := svc.AddLesson(context.Background(), course.ID, dto.LessonCreateRequest{Title: "Triangles", Content: "Angles sum to 180."})
	require.NoError(t, err)
	require.Len(t, updated.Lessons, 1)
	require.Equal(t, "Triangles", updated.Lessons[0].Title)
}

func TestCourseServiceGetUnknown(t *testing.T) {
	svc, _ := newCourseService(t)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
