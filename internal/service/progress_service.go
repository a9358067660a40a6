package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
)

// ProgressService aggregates a student's standing across every enrolled
// course into one dashboard payload.
type ProgressService interface {
	GetStudentProgress(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error)
}

type progressService struct {
	enrollments  repository.EnrollmentRepository
	assignments  repository.AssignmentRepository
	submissions  repository.SubmissionRepository
	quizAttempts repository.QuizSubmissionRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewProgressService builds the progress aggregator. cache may be nil; the
// aggregation then runs on every call.
func NewProgressService(enrollmentRepo repository.EnrollmentRepository, assignmentRepo repository.AssignmentRepository, submissionRepo repository.SubmissionRepository, quizAttemptRepo repository.QuizSubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &progressService{
		enrollments:  enrollmentRepo,
		assignments:  assignmentRepo,
		submissions:  submissionRepo,
		quizAttempts: quizAttemptRepo,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) GetStudentProgress(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error) {
	cacheKey := fmt.Sprintf("progress:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("progress cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	assignments := make([]models.Assignment, 0)
	for _, enrollment := range enrollments {
		if !enrollment.IsActive() {
			continue
		}
		courseAssignments, err := s.assignments.ListByCourse(ctx, enrollment.CourseID)
		if err != nil {
			return dto.StudentProgressResponse{}, err
		}
		assignments = append(assignments, courseAssignments...)
	}

	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	attempts, err := s.quizAttempts.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	response := buildProgressResponse(assignments, submissions, attempts)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func buildProgressResponse(assignments []models.Assignment, submissions []models.Submission, attempts []models.QuizSubmission) dto.StudentProgressResponse {
	submissionByAssignment := map[uint]models.Submission{}
	for _, submission := range submissions {
		if _, exists := submissionByAssignment[submission.AssignmentID]; !exists {
			submissionByAssignment[submission.AssignmentID] = submission
		}
	}

	summary := dto.ProgressSummary{}
	progress := make([]dto.AssignmentProgress, 0, len(assignments))
	var scoreTotal float64
	var scoredCount int

	for _, assignment := range assignments {
		summary.TotalAssignments++

		entry := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			MaxScore:     assignment.MaxScore,
			Status:       "pending",
			UpdatedAt:    assignment.UpdatedAt,
		}

		submission, submitted := submissionByAssignment[assignment.ID]
		if submitted {
			summary.Submitted++
			id := submission.ID
			entry.SubmissionID = &id
			entry.UpdatedAt = submission.UpdatedAt

			if submission.IsGraded() {
				summary.Graded++
				entry.Status = dto.SubmissionStatusGraded
				entry.Score = submission.TeacherScore
				entry.Feedback = submission.TeacherFeedback
				if submission.TeacherScore != nil {
					scoreTotal += *submission.TeacherScore
					scoredCount++
				}
			} else {
				summary.Pending++
				entry.Status = dto.SubmissionStatusProcessing
			}
		} else {
			summary.Pending++
		}

		progress = append(progress, entry)
	}

	if scoredCount > 0 {
		summary.AverageScore = roundTwo(scoreTotal / float64(scoredCount))
	}

	quizzes := make([]dto.QuizProgress, 0, len(attempts))
	var quizTotal float64
	for _, attempt := range attempts {
		quizzes = append(quizzes, dto.QuizProgress{
			QuizSubmissionID: attempt.ID,
			QuizID:           attempt.QuizID,
			Score:            attempt.Score,
			SubmittedAt:      attempt.SubmittedAt,
		})
		quizTotal += attempt.Score
	}
	summary.QuizAttempts = len(attempts)
	if len(attempts) > 0 {
		summary.QuizAverage = roundTwo(quizTotal / float64(len(attempts)))
	}

	return dto.StudentProgressResponse{
		Summary:     summary,
		Assignments: progress,
		Quizzes:     quizzes,
	}
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
