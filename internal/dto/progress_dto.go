package dto

import "time"

// ProgressSummary aggregates a student's standing across assignments and
// quizzes.
type ProgressSummary struct {
	TotalAssignments int     `json:"total_assignments"`
	Submitted        int     `json:"submitted"`
	Graded           int     `json:"graded"`
	Pending          int     `json:"pending"`
	AverageScore     float64 `json:"average_score"`
	QuizAttempts     int     `json:"quiz_attempts"`
	QuizAverage      float64 `json:"quiz_average"`
}

// AssignmentProgress describes one assignment from the student's viewpoint.
type AssignmentProgress struct {
	AssignmentID uint      `json:"assignment_id"`
	Title        string    `json:"title"`
	MaxScore     float64   `json:"max_score"`
	Status       string    `json:"status"`
	SubmissionID *uint     `json:"submission_id"`
	Score        *float64  `json:"score"`
	Feedback     string    `json:"feedback"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuizProgress describes one quiz attempt.
type QuizProgress struct {
	QuizSubmissionID uint      `json:"quiz_submission_id"`
	QuizID           uint      `json:"quiz_id"`
	Score            float64   `json:"score"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// StudentProgressResponse is the aggregated dashboard payload.
type StudentProgressResponse struct {
	Summary     ProgressSummary      `json:"summary"`
	Assignments []AssignmentProgress `json:"assignments"`
	Quizzes     []QuizProgress       `json:"quizzes"`
}
