package dto

import (
	"time"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// Submission statuses derived for API clients.
const (
	SubmissionStatusProcessing = "processing"
	SubmissionStatusGraded     = "graded"
)

// AssignmentSubmitRequest carries a student's free-text answer.
type AssignmentSubmitRequest struct {
	Answer string `json:"answer" validate:"required,min=1"`
}

// TeacherGradeRequest is a teacher's manual override of a submission grade.
type TeacherGradeRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty,min=3"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint           `json:"id"`
	AssignmentID    uint           `json:"assignment_id"`
	StudentID       uint           `json:"student_id"`
	Answer          string         `json:"answer"`
	AnswerVersion   uint           `json:"answer_version"`
	Status          string         `json:"status"`
	AIScore         *float64       `json:"ai_score"`
	AIFeedback      string         `json:"ai_feedback"`
	TeacherScore    *float64       `json:"teacher_score"`
	TeacherFeedback string         `json:"teacher_feedback"`
	GradedBy        *string        `json:"graded_by"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Assignment      AssignmentLite `json:"assignment"`
	Student         StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	MaxScore float64 `json:"max_score"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID          uint   `json:"id"`
	StudentCode string `json:"student_code"`
	FullName    string `json:"full_name"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	status := SubmissionStatusProcessing
	if model.IsGraded() {
		status = SubmissionStatusGraded
	}

	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		Answer:          model.Answer,
		AnswerVersion:   model.AnswerVersion,
		Status:          status,
		AIScore:         model.AIScore,
		AIFeedback:      model.AIFeedback,
		TeacherScore:    model.TeacherScore,
		TeacherFeedback: model.TeacherFeedback,
		GradedBy:        model.GradedBy,
		SubmittedAt:     model.SubmittedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			MaxScore: model.Assignment.MaxScore,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:          model.Student.ID,
			StudentCode: model.Student.StudentCode,
			FullName:    model.Student.User.FullName,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
