package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

func TestApplyAIGradeMirrorsScore(t *testing.T) {
	db := openTestDB(t)
	submission := createSubmission(t, db, 1)
	repo := NewSubmissionRepository(db)

	err := repo.ApplyAIGrade(context.Background(), AIGrade{
		SubmissionID:  submission.ID,
		AnswerVersion: 1,
		Score:         7.25,
		Feedback:      "reasonable",
		Details:       map[string]interface{}{"score": 7.25, "feedback": "reasonable"},
	})
	require.NoError(t, err)

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.Equal(t, 7.25, *updated.AIScore)
	require.Equal(t, 7.25, *updated.TeacherScore)
	require.Equal(t, "reasonable", updated.AIFeedback)
	require.Equal(t, models.GradedByAI, *updated.GradedBy)
	require.NotNil(t, updated.GradeDetails)
}

func TestApplyAIGradeRejectsStaleVersion(t *testing.T) {
	db := openTestDB(t)
	submission := createSubmission(t, db, 2)
	repo := NewSubmissionRepository(db)

	err := repo.ApplyAIGrade(context.Background(), AIGrade{
		SubmissionID:  submission.ID,
		AnswerVersion: 1,
		Score:         9,
	})
	require.ErrorIs(t, err, ErrStaleAnswerVersion)

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.Nil(t, updated.AIScore)
	require.Nil(t, updated.GradedBy)
}

func TestApplyAIGradeRejectsTeacherGraded(t *testing.T) {
	db := openTestDB(t)
	submission := createSubmission(t, db, 1)
	repo := NewSubmissionRepository(db)

	_, err := repo.ApplyTeacherGrade(context.Background(), TeacherGrade{SubmissionID: submission.ID, Score: 9, Feedback: "done by hand"})
	require.NoError(t, err)

	err = repo.ApplyAIGrade(context.Background(), AIGrade{SubmissionID: submission.ID, AnswerVersion: 1, Score: 2})
	require.ErrorIs(t, err, ErrTeacherGradePresent)

	var updated models.Submission
	require.NoError(t, db.First(&updated, submission.ID).Error)
	require.Equal(t, 9.0, *updated.TeacherScore)
	require.Equal(t, models.GradedByTeacher, *updated.GradedBy)
}

func TestApplyTeacherGradeOverwritesAIGrade(t *testing.T) {
	db := openTestDB(t)
	submission := createSubmission(t, db, 1)
	repo := NewSubmissionRepository(db)

	require.NoError(t, repo.ApplyAIGrade(context.Background(), AIGrade{SubmissionID: submission.ID, AnswerVersion: 1, Score: 4, Feedback: "robot"}))

	updated, err := repo.ApplyTeacherGrade(context.Background(), TeacherGrade{SubmissionID: submission.ID, Score: 8.5, Feedback: "human"})
	require.NoError(t, err)
	require.Equal(t, 8.5, *updated.TeacherScore)
	require.Equal(t, "human", updated.TeacherFeedback)
	require.Equal(t, models.GradedByTeacher, *updated.GradedBy)
	// The AI columns keep the original automated result.
	require.Equal(t, 4.0, *updated.AIScore)
	require.Equal(t, "robot", updated.AIFeedback)
}
