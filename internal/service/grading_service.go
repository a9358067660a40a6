package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/observability"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
	"github.com/openlearn-vn/openlearn-api/pkg/ai"
)

// ErrScoreExceedsMax indicates a teacher grade surpasses the assignment max.
var ErrScoreExceedsMax = errors.New("score exceeds assignment max")

// FallbackFeedback is persisted when the AI gateway fails; the student sees
// a zero score with this explanation instead of an error.
const FallbackFeedback = "Automated grading is currently unavailable. A teacher will review this submission."

// GradingJob is one unit of deferred grading work. AnswerVersion pins the
// answer the job was dispatched for; a write-back against a newer version is
// discarded.
type GradingJob struct {
	SubmissionID  uint
	AnswerVersion uint
	NotifyUserID  uint
	Question      string
	Answer        string
	MaxScore      float64
}

// SessionFactory hands each background task its own data-store session, in
// a separate failure domain from the request that triggered it.
type SessionFactory func() *gorm.DB

// GradingConfig tunes the background worker pool.
type GradingConfig struct {
	Workers   int
	QueueSize int
	// JobTimeout bounds the external AI call plus the write-back.
	JobTimeout time.Duration
	// Synchronous makes Enqueue run the job inline. Tests use this to avoid
	// racing against the pool.
	Synchronous bool
}

// GradingService owns the asynchronous grading pipeline and the teacher
// override path.
type GradingService interface {
	// Enqueue submits a grading job without blocking the caller. When the
	// queue is full the job is dropped with a warning; it is never retried.
	Enqueue(job GradingJob)
	// Override applies a teacher's manual grade, unconditionally replacing
	// any AI-derived values.
	Override(ctx context.Context, submissionID uint, payload dto.TeacherGradeRequest) (dto.SubmissionResponse, error)
	// Stop drains the pool. Jobs already accepted are finished.
	Stop(ctx context.Context) error
}

type gradingService struct {
	grader      ai.Grader
	sessions    SessionFactory
	submissions repository.SubmissionRepository
	notifier    NotificationPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	config      GradingConfig

	queue chan GradingJob
	wg    sync.WaitGroup
	once  sync.Once
}

// NewGradingService constructs the grading pipeline and starts its workers.
// submissionRepo serves the synchronous override path on the request-scoped
// connection; background jobs open their own session via sessions.
func NewGradingService(grader ai.Grader, sessions SessionFactory, submissionRepo repository.SubmissionRepository, notifier NotificationPublisher, validate *validator.Validate, logger zerolog.Logger, cfg GradingConfig) GradingService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 60 * time.Second
	}

	s := &gradingService{
		grader:      grader,
		sessions:    sessions,
		submissions: submissionRepo,
		notifier:    notifier,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/openlearn-vn/openlearn-api/internal/service/grading"),
		config:      cfg,
		queue:       make(chan GradingJob, cfg.QueueSize),
	}

	if !cfg.Synchronous {
		for i := 0; i < cfg.Workers; i++ {
			s.wg.Add(1)
			go s.worker()
		}
	}

	return s
}

func (s *gradingService) Enqueue(job GradingJob) {
	if s.config.Synchronous {
		s.process(job)
		return
	}

	select {
	case s.queue <- job:
		observability.GradingQueueDepth().Set(float64(len(s.queue)))
	default:
		observability.GradingTasks().WithLabelValues("dropped").Inc()
		s.logger.Warn().Uint("submission_id", job.SubmissionID).Msg("grading queue full, dropping job")
	}
}

func (s *gradingService) Stop(ctx context.Context) error {
	s.once.Do(func() { close(s.queue) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *gradingService) worker() {
	defer s.wg.Done()
	for job := range s.queue {
		observability.GradingQueueDepth().Set(float64(len(s.queue)))
		s.process(job)
	}
}

// process runs one grading job end to end. Failures never escape: every
// path either persists a result or logs and counts the outcome.
func (s *gradingService) process(job GradingJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "grading.task", trace.WithAttributes(
		attribute.Int64("submission.id", int64(job.SubmissionID)),
		attribute.Int64("submission.answer_version", int64(job.AnswerVersion)),
	))
	defer span.End()

	result, gradeErr := s.grader.Grade(ctx, ai.GradeInput{
		Question: job.Question,
		Answer:   job.Answer,
		MaxScore: job.MaxScore,
	})

	outcome := "graded"
	if gradeErr != nil {
		// Degraded result: zero score, explanatory feedback. The failure is
		// logged but never surfaced to the student.
		span.RecordError(gradeErr)
		s.logger.Warn().Err(gradeErr).Uint("submission_id", job.SubmissionID).Msg("ai grading failed, persisting degraded result")
		result = ai.GradeResult{Score: 0, Feedback: FallbackFeedback}
		outcome = "degraded"
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if job.MaxScore > 0 && result.Score > job.MaxScore {
		result.Score = job.MaxScore
	}

	repo := repository.NewSubmissionRepository(s.sessions())
	err := repo.ApplyAIGrade(ctx, repository.AIGrade{
		SubmissionID:  job.SubmissionID,
		AnswerVersion: job.AnswerVersion,
		Score:         result.Score,
		Feedback:      result.Feedback,
		Details:       result.Raw,
	})

	switch {
	case err == nil:
		observability.GradingTasks().WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.Float64("grading.score", result.Score))
		s.logger.Info().
			Uint("submission_id", job.SubmissionID).
			Float64("score", result.Score).
			Str("outcome", outcome).
			Msg("submission graded")
		s.notifyGraded(ctx, job, result.Score)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// The submission vanished between dispatch and write-back. Treated
		// as a successful no-op.
		observability.GradingTasks().WithLabelValues("missing").Inc()
		s.logger.Info().Uint("submission_id", job.SubmissionID).Msg("submission no longer exists, skipping grade write")
	case errors.Is(err, repository.ErrStaleAnswerVersion):
		observability.GradingTasks().WithLabelValues("stale").Inc()
		s.logger.Info().
			Uint("submission_id", job.SubmissionID).
			Uint("answer_version", job.AnswerVersion).
			Msg("answer resubmitted while grading was in flight, discarding stale result")
	case errors.Is(err, repository.ErrTeacherGradePresent):
		observability.GradingTasks().WithLabelValues("superseded").Inc()
		s.logger.Info().Uint("submission_id", job.SubmissionID).Msg("teacher already graded this answer, keeping manual grade")
	default:
		// The transaction rolled back; the row keeps its ungraded state.
		observability.GradingTasks().WithLabelValues("write_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "write_failed")
		s.logger.Error().Err(err).Uint("submission_id", job.SubmissionID).Msg("failed to persist grade")
	}
}

func (s *gradingService) notifyGraded(ctx context.Context, job GradingJob, score float64) {
	if s.notifier == nil || job.NotifyUserID == 0 {
		return
	}

	message := fmt.Sprintf("Your submission has been graded automatically: %.2f/%.2f. A teacher may adjust this score.", score, job.MaxScore)
	if err := s.notifier.Publish(ctx, job.NotifyUserID, message); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", job.NotifyUserID).Msg("failed to publish grading notification")
	}
}

func (s *gradingService) Override(ctx context.Context, submissionID uint, payload dto.TeacherGradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.override", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if submission.Assignment.MaxScore > 0 && payload.Score > submission.Assignment.MaxScore {
		return dto.SubmissionResponse{}, ErrScoreExceedsMax
	}

	updated, err := s.submissions.ApplyTeacherGrade(ctx, repository.TeacherGrade{
		SubmissionID: submissionID,
		Score:        payload.Score,
		Feedback:     sanitizeText(payload.Feedback),
	})
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Float64("score", payload.Score).
		Msg("teacher override applied")

	updated.Assignment = submission.Assignment
	updated.Student = submission.Student
	return dto.NewSubmissionResponse(updated), nil
}
