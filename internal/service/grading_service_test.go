package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
	"github.com/openlearn-vn/openlearn-api/pkg/ai"
)

type stubGrader struct {
	result ai.GradeResult
	err    error
	calls  int
}

func (g *stubGrader) Grade(ctx context.Context, input ai.GradeInput) (ai.GradeResult, error) {
	g.calls++
	return g.result, g.err
}

type stubNotifier struct {
	messages []string
	userIDs  []uint
}

func (n *stubNotifier) Publish(ctx context.Context, userID uint, message string) error {
	n.userIDs = append(n.userIDs, userID)
	n.messages = append(n.messages, message)
	return nil
}

func newGradingEnv(t *testing.T, grader ai.Grader) (GradingService, *gorm.DB, *stubNotifier) {
	t.Helper()

	db := testDB(t)
	notifier := &stubNotifier{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewGradingService(grader, func() *gorm.DB { return db }, repository.NewSubmissionRepository(db), notifier, validate, testLogger(), GradingConfig{
		Synchronous: true,
	})

	return svc, db, notifier
}

func seedUngradedSubmission(t *testing.T, db *gorm.DB, maxScore float64) models.Submission {
	t.Helper()

	student := seedStudent(t, db, "graded@test.local")
	course := seedCourse(t, db, "Biology")
	assignment := seedAssignment(t, db, course.ID, maxScore)

	submission := models.Submission{
		AssignmentID:  assignment.ID,
		StudentID:     student.ID,
		Answer:        "Water evaporates, condenses and precipitates.",
		AnswerVersion: 1,
	}
	require.NoError(t, db.Create(&submission).Error)
	submission.Assignment = assignment
	submission.Student = student

	return submission
}

func TestGradingServiceProcessPersistsAIGrade(t *testing.T) {
	grader := &stubGrader{result: ai.GradeResult{Score: 8.5, Feedback: "Solid answer.", Raw: map[string]interface{}{"score": 8.5}}}
	svc, db, notifier := newGradingEnv(t, grader)
	submission := seedUngradedSubmission(t, db, 10)

	svc.Enqueue(GradingJob{
		SubmissionID:  submission.ID,
		AnswerVersion: 1,
		NotifyUserID:  submission.Student.UserID,
		Question:      submission.Assignment.QuestionText(),
		Answer:        submission.Answer,
		MaxScore:      10,
	})

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.NotNil(t, updated.AIScore)
	require.Equal(t, 8.5, *updated.AIScore)
	require.Equal(t, "Solid answer.", updated.AIFeedback)
	require.NotNil(t, updated.GradedBy)
	require.Equal(t, models.GradedByAI, *updated.GradedBy)
	// The AI result doubles as the initial teacher-facing grade.
	require.NotNil(t, updated.TeacherScore)
	require.Equal(t, 8.5, *updated.TeacherScore)

	require.Len(t, notifier.messages, 1)
	require.Equal(t, submission.Student.UserID, notifier.userIDs[0])
}

func TestGradingServiceFailureWritesDegradedResult(t *testing.T) {
	grader := &stubGrader{err: errors.New("upstream unavailable")}
	svc, db, _ := newGradingEnv(t, grader)
	submission := seedUngradedSubmission(t, db, 10)

	svc.Enqueue(GradingJob{SubmissionID: submission.ID, AnswerVersion: 1, Question: "q", Answer: "a", MaxScore: 10})

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.NotNil(t, updated.AIScore)
	require.Equal(t, 0.0, *updated.AIScore)
	require.Equal(t, FallbackFeedback, updated.AIFeedback)
	require.NotNil(t, updated.GradedBy)
	require.Equal(t, models.GradedByAI, *updated.GradedBy)
}

func TestGradingServiceClampsScoreToMax(t *testing.T) {
	grader := &stubGrader{result: ai.GradeResult{Score: 42, Feedback: "overshoot"}}
	svc, db, _ := newGradingEnv(t, grader)
	submission := seedUngradedSubmission(t, db, 10)

	svc.Enqueue(GradingJob{SubmissionID: submission.ID, AnswerVersion: 1, Question: "q", Answer: "a", MaxScore: 10})

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.Equal(t, 10.0, *updated.AIScore)
}

func TestGradingServiceDiscardsStaleVersion(t *testing.T) {
	grader := &stubGrader{result: ai.GradeResult{Score: 9, Feedback: "stale"}}
	svc, db, notifier := newGradingEnv(t, grader)
	submission := seedUngradedSubmission(t, db, 10)

	// The student resubmitted while the job was queued.
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", submission.ID).Update("answer_version", 2).Error)

	svc.Enqueue(GradingJob{SubmissionID: submission.ID, AnswerVersion: 1, Question: "q", Answer: "a", MaxScore: 10})

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.Nil(t, updated.AIScore)
	require.Nil(t, updated.GradedBy)
	require.Empty(t, notifier.messages)
}

func TestGradingServiceKeepsTeacherGrade(t *testing.T) {
	grader := &stubGrader{result: ai.GradeResult{Score: 3, Feedback: "late ai result"}}
	svc, db, _ := newGradingEnv(t, grader)
	submission := seedUngradedSubmission(t, db, 10)

	repo := repository.NewSubmissionRepository(db)
	_, err := repo.ApplyTeacherGrade(context.Background(), repository.TeacherGrade{
		SubmissionID: submission.ID,
		Score:        9.5,
		Feedback:     "Excellent work",
	})
	require.NoError(t, err)

	svc.Enqueue(GradingJob{SubmissionID: submission.ID, AnswerVersion: 1, Question: "q", Answer: "a", MaxScore: 10})

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.Equal(t, models.GradedByTeacher, *updated.GradedBy)
	require.Equal(t, 9.5, *updated.TeacherScore)
	require.Equal(t, "Excellent work", updated.TeacherFeedback)
}

func TestGradingServiceMissingSubmissionIsNoOp(t *testing.T) {
	grader := &stubGrader{result: ai.GradeResult{Score: 5, Feedback: "ghost"}}
	svc, _, notifier := newGradingEnv(t, grader)

	svc.Enqueue(GradingJob{SubmissionID: 9999, AnswerVersion: 1, Question: "q", Answer: "a", MaxScore: 10})

	require.Empty(t, notifier.messages)
}

func TestGradingServiceOverrideReplacesAIGrade(t *testing.T) {
	grader := &stubGrader{result: ai.GradeResult{Score: 6, Feedback: "ai feedback"}}
	svc, db, _ := newGradingEnv(t, grader)
	submission := seedUngradedSubmission(t, db, 10)

	svc.Enqueue(GradingJob{SubmissionID: submission.ID, AnswerVersion: 1, Question: "q", Answer: "a", MaxScore: 10})

	response, err := svc.Override(context.Background(), submission.ID, dto.TeacherGradeRequest{Score: 8, Feedback: "Better than the bot thinks"})
	require.NoError(t, err)
	require.Equal(t, dto.SubmissionStatusGraded, response.Status)
	require.Equal(t, 8.0, *response.TeacherScore)
	require.Equal(t, models.GradedByTeacher, *response.GradedBy)
	// The original AI values remain for audit.
	require.Equal(t, 6.0, *response.AIScore)
}

func TestGradingServiceOverrideRejectsScoreAboveMax(t *testing.T) {
	svc, db, _ := newGradingEnv(t, &stubGrader{})
	submission := seedUngradedSubmission(t, db, 10)

	_, err := svc.Override(context.Background(), submission.ID, dto.TeacherGradeRequest{Score: 11})
	require.ErrorIs(t, err, ErrScoreExceedsMax)
}

func TestGradingServiceOverrideUnknownSubmission(t *testing.T) {
	svc, _, _ := newGradingEnv(t, &stubGrader{})

	_, err := svc.Override(context.Background(), 4242, dto.TeacherGradeRequest{Score: 5})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
