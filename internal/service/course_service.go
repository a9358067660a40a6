package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

// ErrCourseNotFound indicates the course could not be located.
var ErrCourseNotFound = errors.New("course not found")

// ErrNotEnrolled indicates the student has no active enrollment in the
// course owning the content they tried to access.
var ErrNotEnrolled = errors.New("student is not enrolled in this course")

// ErrAlreadyEnrolled indicates a duplicate enrollment attempt.
var ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")

// ErrCourseArchived indicates the course no longer accepts enrollments.
var ErrCourseArchived = errors.New("course is archived")

// CourseService serves the catalog and manages enrollments.
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	AddLesson(ctx context.Context, courseID uint, payload dto.LessonCreateRequest) (dto.CourseResponse, error)
	Enroll(ctx context.Context, courseID, studentID uint) (dto.EnrollmentResponse, error)
	ListEnrollments(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courseRepo repository.CourseRepository, enrollmentRepo repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courseRepo,
		enrollments: enrollmentRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
		tracer:      otel.Tracer("github.com/openlearn-vn/openlearn-api/internal/service/course"),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:       sanitizeText(payload.Title),
		Description: sanitizeText(payload.Description),
		Price:       payload.Price,
		Status:      models.CourseStatusActive,
		TeacherID:   payload.TeacherID,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("teacher_id", course.TeacherID).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) AddLesson(ctx context.Context, courseID uint, payload dto.LessonCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	lesson := models.Lesson{
		CourseID: courseID,
		Title:    sanitizeText(payload.Title),
		Content:  payload.Content,
	}
	if err := s.courses.AddLesson(ctx, &lesson); err != nil {
		return dto.CourseResponse{}, err
	}

	return s.Get(ctx, courseID)
}

func (s *courseService) Enroll(ctx context.Context, courseID, studentID uint) (dto.EnrollmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.enroll", trace.WithAttributes(
		attribute.Int64("course.id", int64(courseID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}
	if course.Status != models.CourseStatusActive {
		return dto.EnrollmentResponse{}, ErrCourseArchived
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID); err == nil {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Amount:    course.Price,
		Status:    models.EnrollmentStatusPaid,
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().
		Uint("course_id", courseID).
		Uint("student_id", studentID).
		Float64("amount", enrollment.Amount).
		Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *courseService) ListEnrollments(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}

	return responses, nil
}
