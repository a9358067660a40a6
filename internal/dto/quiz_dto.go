package dto

import (
	"time"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// QuizSubmitRequest carries one selected-option string per question, keyed
// by question id. Unanswered questions are simply absent.
type QuizSubmitRequest struct {
	Answers map[uint]string `json:"answers" validate:"required"`
}

// QuizAnswerResult reports the graded outcome of one question.
type QuizAnswerResult struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
}

// QuizResultResponse is returned immediately after a quiz submission.
type QuizResultResponse struct {
	SubmissionID   uint               `json:"submission_id"`
	QuizID         uint               `json:"quiz_id"`
	Score          float64            `json:"score"`
	CorrectCount   int                `json:"correct_count"`
	TotalQuestions int                `json:"total_questions"`
	SubmittedAt    time.Time          `json:"submitted_at"`
	Answers        []QuizAnswerResult `json:"answers"`
}

// NewQuizResultResponse converts a persisted attempt into a DTO.
func NewQuizResultResponse(submission models.QuizSubmission, correctCount, total int) QuizResultResponse {
	answers := make([]QuizAnswerResult, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		answers = append(answers, QuizAnswerResult{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			IsCorrect:      answer.IsCorrect,
		})
	}

	return QuizResultResponse{
		SubmissionID:   submission.ID,
		QuizID:         submission.QuizID,
		Score:          submission.Score,
		CorrectCount:   correctCount,
		TotalQuestions: total,
		SubmittedAt:    submission.SubmittedAt,
		Answers:        answers,
	}
}

// QuizCreateRequest describes a new quiz under a course.
type QuizCreateRequest struct {
	CourseID        uint   `json:"course_id" validate:"required,gt=0"`
	LessonID        *uint  `json:"lesson_id" validate:"omitempty,gt=0"`
	Title           string `json:"title" validate:"required,min=3,max=200"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,gt=0"`
}

// QuestionCreateRequest adds a question to an existing quiz.
type QuestionCreateRequest struct {
	Content       string `json:"content" validate:"required,min=3"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=A B C D"`
}

// QuizResponse summarizes a quiz without leaking correct answers.
type QuizResponse struct {
	ID              uint               `json:"id"`
	CourseID        uint               `json:"course_id"`
	LessonID        *uint              `json:"lesson_id"`
	Title           string             `json:"title"`
	DurationMinutes int                `json:"duration_minutes"`
	Questions       []QuestionResponse `json:"questions,omitempty"`
}

// QuestionResponse exposes the statement and options only.
type QuestionResponse struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
}

// NewQuizResponse converts a quiz model into a DTO.
func NewQuizResponse(model models.Quiz) QuizResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, QuestionResponse{
			ID:      question.ID,
			Content: question.Content,
			OptionA: question.OptionA,
			OptionB: question.OptionB,
			OptionC: question.OptionC,
			OptionD: question.OptionD,
		})
	}

	return QuizResponse{
		ID:              model.ID,
		CourseID:        model.CourseID,
		LessonID:        model.LessonID,
		Title:           model.Title,
		DurationMinutes: model.DurationMinutes,
		Questions:       questions,
	}
}
