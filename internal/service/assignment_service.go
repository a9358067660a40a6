package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
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

var (
	// ErrAttachmentTooLarge indicates the attachment exceeded the size limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum allowed size")
	// ErrAttachmentTypeNotAllowed indicates a disallowed attachment type.
	ErrAttachmentTypeNotAllowed = errors.New("attachment type not allowed")
)

// FileStorage abstracts attachment destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService manages free-text assignment authoring.
type AssignmentService interface {
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error)
	// Create authors an assignment; attachment is optional and, when
	// present, validated by sniffed content type before upload.
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, attachment *multipart.FileHeader) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	storage     FileStorage
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	maxSize     int64
}

// NewAssignmentService constructs an AssignmentService instance. storage may
// be nil; attachments are then rejected.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, courseRepo repository.CourseRepository, storage FileStorage, maxSizeMB int, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &assignmentService{
		assignments: assignmentRepo,
		courses:     courseRepo,
		storage:     storage,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		tracer:      otel.Tracer("github.com/openlearn-vn/openlearn-api/internal/service/assignment"),
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
	}
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListByCourse(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, attachment *multipart.FileHeader) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.create", trace.WithAttributes(
		attribute.Int64("course.id", int64(payload.CourseID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CourseID: payload.CourseID,
		Title:    sanitizeText(payload.Title),
		Content:  payload.Content,
		MaxScore: payload.MaxScore,
	}

	if attachment != nil {
		url, err := s.storeAttachment(ctx, attachment)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "attachment_rejected")
			return dto.AssignmentResponse{}, err
		}
		assignment.AttachmentURL = url
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("course_id", assignment.CourseID).
		Float64("max_score", assignment.MaxScore).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) storeAttachment(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", ErrAttachmentTypeNotAllowed
	}
	if file.Size > s.maxSize {
		return "", ErrAttachmentTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return "", err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return "", err
	}
	if int64(buf.Len()) > s.maxSize {
		return "", ErrAttachmentTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	if !allowedAttachment(mime.String()) {
		return "", ErrAttachmentTypeNotAllowed
	}

	return s.storage.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
}

// Attachments are reference material shown to students: documents and
// images only, never executables or archives.
func allowedAttachment(mime string) bool {
	switch {
	case mime == "application/pdf":
		return true
	case len(mime) > 6 && mime[:6] == "image/":
		return true
	default:
		return false
	}
}
