package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

func TestCreateWithAnswersLinksAnswerRows(t *testing.T) {
	db := openTestDB(t)
	repo := NewQuizSubmissionRepository(db)

	submission := models.QuizSubmission{
		QuizID:      1,
		StudentID:   1,
		Score:       5,
		SubmittedAt: time.Now(),
		Answers: []models.QuizAnswer{
			{QuestionID: 10, SelectedOption: "A", IsCorrect: true},
			{QuestionID: 11, SelectedOption: "C", IsCorrect: false},
		},
	}
	require.NoError(t, repo.CreateWithAnswers(context.Background(), &submission))
	require.NotZero(t, submission.ID)

	var answers []models.QuizAnswer
	require.NoError(t, db.Where("quiz_submission_id = ?", submission.ID).Find(&answers).Error)
	require.Len(t, answers, 2)

	fetched, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Answers, 2)
	require.Equal(t, 5.0, fetched.Score)
}

func TestCreateWithAnswersHandlesEmptyAttempt(t *testing.T) {
	db := openTestDB(t)
	repo := NewQuizSubmissionRepository(db)

	submission := models.QuizSubmission{QuizID: 2, StudentID: 1, Score: 0, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateWithAnswers(context.Background(), &submission))
	require.NotZero(t, submission.ID)

	var count int64
	require.NoError(t, db.Model(&models.QuizAnswer{}).Count(&count).Error)
	require.Zero(t, count)
}
