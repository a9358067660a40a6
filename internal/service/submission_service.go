package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAssignmentNotFound indicates an assignment could not be found.
var ErrAssignmentNotFound = errors.New("assignment not found")

var textPolicy = bluemonday.StrictPolicy()

func sanitizeText(value string) string {
	return strings.TrimSpace(textPolicy.Sanitize(value))
}

// GradingEnqueuer is the subset of GradingService the submit path needs.
type GradingEnqueuer interface {
	Enqueue(job GradingJob)
}

// SubmissionService orchestrates free-text assignment submissions. Scoring
// happens out of band: the submit call returns as soon as the row is durable
// and a grading job has been dispatched.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, studentID uint, payload dto.AssignmentSubmitRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	GetForStudent(ctx context.Context, assignmentID, studentID uint) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	grading     GradingEnqueuer
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, studentRepo repository.StudentRepository, enrollmentRepo repository.EnrollmentRepository, grading GradingEnqueuer, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		students:    studentRepo,
		enrollments: enrollmentRepo,
		grading:     grading,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/openlearn-vn/openlearn-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID uint, payload dto.AssignmentSubmitRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, assignment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNotEnrolled
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	if !enrollment.IsActive() {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	answer := sanitizeText(payload.Answer)

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	switch {
	case err == nil:
		// Resubmission: the answer is replaced, every score field is reset
		// to ungraded and the version moves on so an in-flight grading task
		// for the old answer cannot land.
		submission.Answer = answer
		submission.AnswerVersion++
		submission.AIScore = nil
		submission.AIFeedback = ""
		submission.TeacherScore = nil
		submission.TeacherFeedback = ""
		submission.GradedBy = nil
		submission.GradeDetails = nil
		submission.SubmittedAt = s.now()
		if err := s.submissions.Update(ctx, &submission); err != nil {
			span.RecordError(err)
			return dto.SubmissionResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			AssignmentID:  assignmentID,
			StudentID:     studentID,
			Answer:        answer,
			AnswerVersion: 1,
			SubmittedAt:   s.now(),
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			span.RecordError(err)
			return dto.SubmissionResponse{}, err
		}
	default:
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	// The grading job is dispatched only after the row is durable. The HTTP
	// response does not wait for it.
	s.grading.Enqueue(GradingJob{
		SubmissionID:  submission.ID,
		AnswerVersion: submission.AnswerVersion,
		NotifyUserID:  s.resolveNotifyUser(ctx, studentID),
		Question:      assignment.QuestionText(),
		Answer:        answer,
		MaxScore:      assignment.MaxScore,
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignmentID).
		Uint("answer_version", submission.AnswerVersion).
		Msg("submission accepted, grading dispatched")

	submission.Assignment = assignment
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) GetForStudent(ctx context.Context, assignmentID, studentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) resolveNotifyUser(ctx context.Context, studentID uint) uint {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("could not resolve student account for notification")
		return 0
	}
	return student.UserID
}
