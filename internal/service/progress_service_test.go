package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

func newProgressService(t *testing.T, db *gorm.DB, cache *redis.Client) ProgressService {
	t.Helper()

	return NewProgressService(
		repository.NewEnrollmentRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewQuizSubmissionRepository(db),
		cache,
		time.Minute,
		testLogger(),
	)
}

func TestProgressServiceAggregatesStanding(t *testing.T) {
	db := testDB(t)
	student := seedStudent(t, db, "dash@test.local")
	course := seedCourse(t, db, "Literature")
	seedEnrollment(t, db, student.ID, course.ID)

	graded := seedAssignment(t, db, course.ID, 10)
	pending := seedAssignment(t, db, course.ID, 10)
	_ = pending

	score := 8.0
	gradedBy := models.GradedByAI
	require.NoError(t, db.Create(&models.Submission{
		AssignmentID: graded.ID,
		StudentID:    student.ID,
		Answer:       "done",
		AnswerVersion: 1,
		AIScore:      &score,
		TeacherScore: &score,
		GradedBy:     &gradedBy,
	}).Error)

	require.NoError(t, db.Create(&models.QuizSubmission{QuizID: 1, StudentID: student.ID, Score: 7.5, SubmittedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&models.QuizSubmission{QuizID: 2, StudentID: student.ID, Score: 10, SubmittedAt: time.Now()}).Error)

	svc := newProgressService(t, db, nil)

	progress, err := svc.GetStudentProgress(context.Background(), student.ID)
	require.NoError(t, err)

	require.Equal(t, 2, progress.Summary.TotalAssignments)
	require.Equal(t, 1, progress.Summary.Submitted)
	require.Equal(t, 1, progress.Summary.Graded)
	require.Equal(t, 1, progress.Summary.Pending)
	require.Equal(t, 8.0, progress.Summary.AverageScore)
	require.Equal(t, 2, progress.Summary.QuizAttempts)
	require.Equal(t, 8.75, progress.Summary.QuizAverage)
	require.Len(t, progress.Assignments, 2)
	require.Len(t, progress.Quizzes, 2)
}

func TestProgressServiceServesCachedCopy(t *testing.T) {
	db := testDB(t)
	student := seedStudent(t, db, "cached@test.local")
	course := seedCourse(t, db, "Literature")
	seedEnrollment(t, db, student.ID, course.ID)
	seedAssignment(t, db, course.ID, 10)

	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	svc := newProgressService(t, db, redisClient)

	first, err := svc.GetStudentProgress(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.Summary.TotalAssignments)

	// New data does not appear until the cache entry expires.
	seedAssignment(t, db, course.ID, 10)

	second, err := svc.GetStudentProgress(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, second.Summary.TotalAssignments)

	server.FastForward(2 * time.Minute)

	third, err := svc.GetStudentProgress(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, 2, third.Summary.TotalAssignments)
}
