package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

// ErrQuizNotFound indicates the quiz could not be located.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrQuizHasNoQuestions indicates a quiz cannot be taken before at least one
// question is authored.
var ErrQuizHasNoQuestions = errors.New("quiz has no questions")

// QuizService scores objective quiz attempts and serves quiz content.
type QuizService interface {
	Get(ctx context.Context, id uint) (dto.QuizResponse, error)
	// Submit scores the attempt inline and persists it atomically. An empty
	// or partial answer map is valid; unanswered questions score as
	// incorrect.
	Submit(ctx context.Context, quizID, studentID uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error)
	Result(ctx context.Context, submissionID uint) (dto.QuizResultResponse, error)
	Create(ctx context.Context, payload dto.QuizCreateRequest) (dto.QuizResponse, error)
	AddQuestion(ctx context.Context, quizID uint, payload dto.QuestionCreateRequest) (dto.QuizResponse, error)
	Delete(ctx context.Context, id uint) error
}

type quizService struct {
	quizzes     repository.QuizRepository
	attempts    repository.QuizSubmissionRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewQuizService constructs a QuizService instance.
func NewQuizService(quizRepo repository.QuizRepository, attemptRepo repository.QuizSubmissionRepository, enrollmentRepo repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:     quizRepo,
		attempts:    attemptRepo,
		enrollments: enrollmentRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "quiz_service").Logger(),
		tracer:      otel.Tracer("github.com/openlearn-vn/openlearn-api/internal/service/quiz"),
		now:         time.Now,
	}
}

func (s *quizService) Get(ctx context.Context, id uint) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Submit(ctx context.Context, quizID, studentID uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.submit", trace.WithAttributes(
		attribute.Int64("quiz.id", int64(quizID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResultResponse{}, ErrQuizNotFound
		}
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	total := len(quiz.Questions)
	if total == 0 {
		span.SetStatus(codes.Error, "quiz_empty")
		return dto.QuizResultResponse{}, ErrQuizHasNoQuestions
	}

	if err := s.requireEnrollment(ctx, studentID, quiz.CourseID); err != nil {
		return dto.QuizResultResponse{}, err
	}

	answers := make([]models.QuizAnswer, 0, total)
	correctCount := 0
	for _, question := range quiz.Questions {
		selected, answered := payload.Answers[question.ID]

		// Byte-exact comparison; a missing or mismatched option is simply
		// incorrect, never an error.
		isCorrect := answered && selected == question.CorrectAnswer
		if isCorrect {
			correctCount++
		}

		answers = append(answers, models.QuizAnswer{
			QuestionID:     question.ID,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
		})
	}

	submission := models.QuizSubmission{
		QuizID:      quizID,
		StudentID:   studentID,
		Score:       scaleScore(correctCount, total),
		SubmittedAt: s.now(),
		Answers:     answers,
	}

	if err := s.attempts.CreateWithAnswers(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence_failed")
		return dto.QuizResultResponse{}, err
	}

	span.SetAttributes(
		attribute.Float64("quiz.score", submission.Score),
		attribute.Int("quiz.correct_count", correctCount),
	)
	s.logger.Info().
		Uint("quiz_id", quizID).
		Uint("student_id", studentID).
		Float64("score", submission.Score).
		Int("correct", correctCount).
		Int("total", total).
		Msg("quiz attempt scored")

	return dto.NewQuizResultResponse(submission, correctCount, total), nil
}

func (s *quizService) Result(ctx context.Context, submissionID uint) (dto.QuizResultResponse, error) {
	submission, err := s.attempts.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResultResponse{}, ErrQuizNotFound
		}
		return dto.QuizResultResponse{}, err
	}

	correctCount := 0
	for _, answer := range submission.Answers {
		if answer.IsCorrect {
			correctCount++
		}
	}

	return dto.NewQuizResultResponse(submission, correctCount, len(submission.Answers)), nil
}

func (s *quizService) Create(ctx context.Context, payload dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	quiz := models.Quiz{
		CourseID:        payload.CourseID,
		LessonID:        payload.LessonID,
		Title:           payload.Title,
		DurationMinutes: payload.DurationMinutes,
	}
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("course_id", quiz.CourseID).Msg("quiz created")

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, payload dto.QuestionCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	question := models.Question{
		QuizID:        quizID,
		Content:       payload.Content,
		OptionA:       payload.OptionA,
		OptionB:       payload.OptionB,
		OptionC:       payload.OptionC,
		OptionD:       payload.OptionD,
		CorrectAnswer: payload.CorrectAnswer,
	}
	if err := s.quizzes.AddQuestion(ctx, &question); err != nil {
		return dto.QuizResponse{}, err
	}

	return s.Get(ctx, quizID)
}

func (s *quizService) Delete(ctx context.Context, id uint) error {
	if _, err := s.quizzes.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	return s.quizzes.Delete(ctx, id)
}

func (s *quizService) requireEnrollment(ctx context.Context, studentID, courseID uint) error {
	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	if !enrollment.IsActive() {
		return ErrNotEnrolled
	}
	return nil
}

// scaleScore maps a correct count onto the fixed 0-10 scale, rounded to two
// decimal places.
func scaleScore(correct, total int) float64 {
	return math.Round(float64(correct)/float64(total)*10*100) / 100
}
