package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/observability"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

// ErrEmptyMessage indicates the message body vanished after sanitization.
var ErrEmptyMessage = errors.New("notification message empty after sanitization")

// NotificationPublisher is the delivery surface other services depend on.
type NotificationPublisher interface {
	Publish(ctx context.Context, userID uint, message string) error
}

// NotificationService persists inbox entries and mirrors them onto the
// message brokers so other nodes and consumers see them.
type NotificationService interface {
	NotificationPublisher
	List(ctx context.Context, userID uint) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkAllRead(ctx context.Context, userID uint) error
	// Broadcast delivers one message to every student with a paid enrollment
	// in the course. Returns the number of recipients.
	Broadcast(ctx context.Context, payload dto.BroadcastRequest) (int, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	enrollments  repository.EnrollmentRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	nodeID       string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// NewNotificationService constructs a notification service. redisClient and
// natsConn may be nil; delivery then stops at the database row.
func NewNotificationService(repo repository.NotificationRepository, enrollmentRepo repository.EnrollmentRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:         repo,
		enrollments:  enrollmentRepo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		validator:    validate,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/openlearn-vn/openlearn-api/internal/service/notification"),
		nodeID:       uuid.NewString(),
	}
}

func (s *notificationService) Publish(ctx context.Context, userID uint, message string) error {
	clean := sanitizeText(message)
	if clean == "" {
		return ErrEmptyMessage
	}

	ctx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(userID)),
	))
	defer span.End()

	model := models.Notification{
		UserID:      userID,
		ReferenceID: uuid.NewString(),
		Message:     clean,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		return err
	}

	s.mirror(ctx, dto.NewNotificationResponse(model))
	observability.NotificationsPublished().WithLabelValues("direct").Inc()

	return nil
}

func (s *notificationService) Broadcast(ctx context.Context, payload dto.BroadcastRequest) (int, error) {
	if err := s.validator.Struct(payload); err != nil {
		return 0, err
	}

	clean := sanitizeText(payload.Message)
	if clean == "" {
		return 0, ErrEmptyMessage
	}

	ctx, span := s.tracer.Start(ctx, "notifications.broadcast", trace.WithAttributes(
		attribute.Int64("course.id", int64(payload.CourseID)),
	))
	defer span.End()

	enrollments, err := s.enrollments.ListByCourse(ctx, payload.CourseID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	referenceID := uuid.NewString()
	batch := make([]models.Notification, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if enrollment.Student.UserID == 0 {
			continue
		}
		batch = append(batch, models.Notification{
			UserID:      enrollment.Student.UserID,
			ReferenceID: referenceID,
			Message:     clean,
		})
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		span.RecordError(err)
		return 0, err
	}

	for _, model := range batch {
		s.mirror(ctx, dto.NewNotificationResponse(model))
	}
	observability.NotificationsPublished().WithLabelValues("broadcast").Add(float64(len(batch)))

	s.logger.Info().
		Uint("course_id", payload.CourseID).
		Int("recipients", len(batch)).
		Msg("notification broadcast delivered")

	return len(batch), nil
}

func (s *notificationService) List(ctx context.Context, userID uint) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// mirror fans the persisted notification out to redis pub/sub and NATS.
// Broker failures are logged, never propagated: the inbox row is the source
// of truth.
func (s *notificationService) mirror(ctx context.Context, notification dto.NotificationResponse) {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode notification event")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to nats")
		}
	}
}
