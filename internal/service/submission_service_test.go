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

type recordingEnqueuer struct {
	jobs []GradingJob
}

func (r *recordingEnqueuer) Enqueue(job GradingJob) {
	r.jobs = append(r.jobs, job)
}

func newSubmissionEnv(t *testing.T) (SubmissionService, *gorm.DB, *recordingEnqueuer, models.Student, models.Assignment) {
	t.Helper()

	db := testDB(t)
	student := seedStudent(t, db, "writer@test.local")
	course := seedCourse(t, db, "History")
	seedEnrollment(t, db, student.ID, course.ID)
	assignment := seedAssignment(t, db, course.ID, 10)

	enqueuer := &recordingEnqueuer{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewStudentRepository(db),
		repository.NewEnrollmentRepository(db),
		enqueuer,
		validate,
		testLogger(),
	)

	return svc, db, enqueuer, student, assignment
}

func TestSubmissionServiceSubmitDispatchesGrading(t *testing.T) {
	svc, db, enqueuer, student, assignment := newSubmissionEnv(t)

	response, err := svc.Submit(context.Background(), assignment.ID, student.ID, dto.AssignmentSubmitRequest{
		Answer: "The water cycle moves water between land, sea and air.",
	})
	require.NoError(t, err)
	require.Equal(t, dto.SubmissionStatusProcessing, response.Status)
	require.Equal(t, uint(1), response.AnswerVersion)
	require.Nil(t, response.AIScore)

	require.Len(t, enqueuer.jobs, 1)
	job := enqueuer.jobs[0]
	require.Equal(t, response.ID, job.SubmissionID)
	require.Equal(t, uint(1), job.AnswerVersion)
	require.Equal(t, student.UserID, job.NotifyUserID)
	require.Equal(t, assignment.QuestionText(), job.Question)
	require.Equal(t, 10.0, job.MaxScore)

	var persisted models.Submission
	require.NoError(t, db.First(&persisted, response.ID).Error)
	require.Equal(t, uint(1), persisted.AnswerVersion)
}

func TestSubmissionServiceResubmitResetsGradeState(t *testing.T) {
	svc, db, enqueuer, student, assignment := newSubmissionEnv(t)

	first, err := svc.Submit(context.Background(), assignment.ID, student.ID, dto.AssignmentSubmitRequest{Answer: "first draft"})
	require.NoError(t, err)

	// Simulate the background task finishing for version 1.
	repo := repository.NewSubmissionRepository(db)
	require.NoError(t, repo.ApplyAIGrade(context.Background(), repository.AIGrade{
		SubmissionID:  first.ID,
		AnswerVersion: 1,
		Score:         7,
		Feedback:      "ok",
	}))

	second, err := svc.Submit(context.Background(), assignment.ID, student.ID, dto.AssignmentSubmitRequest{Answer: "second draft"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, uint(2), second.AnswerVersion)
	require.Equal(t, dto.SubmissionStatusProcessing, second.Status)
	require.Nil(t, second.AIScore)
	require.Nil(t, second.TeacherScore)
	require.Nil(t, second.GradedBy)

	// One submission row per (assignment, student), regardless of retries.
	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	require.Len(t, enqueuer.jobs, 2)
	require.Equal(t, uint(2), enqueuer.jobs[1].AnswerVersion)
}

func TestSubmissionServiceSubmitSanitizesAnswer(t *testing.T) {
	svc, _, _, student, assignment := newSubmissionEnv(t)

	response, err := svc.Submit(context.Background(), assignment.ID, student.ID, dto.AssignmentSubmitRequest{
		Answer: "Plain text <script>alert('x')</script> stays",
	})
	require.NoError(t, err)
	require.NotContains(t, response.Answer, "<script>")
	require.Contains(t, response.Answer, "Plain text")
}

func TestSubmissionServiceSubmitRequiresEnrollment(t *testing.T) {
	svc, db, enqueuer, _, assignment := newSubmissionEnv(t)
	outsider := seedStudent(t, db, "outsider-sub@test.local")

	_, err := svc.Submit(context.Background(), assignment.ID, outsider.ID, dto.AssignmentSubmitRequest{Answer: "hello"})
	require.ErrorIs(t, err, ErrNotEnrolled)
	require.Empty(t, enqueuer.jobs)
}

func TestSubmissionServiceSubmitUnknownAssignment(t *testing.T) {
	svc, _, _, student, _ := newSubmissionEnv(t)

	_, err := svc.Submit(context.Background(), 9999, student.ID, dto.AssignmentSubmitRequest{Answer: "hello"})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
