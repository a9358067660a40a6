package dto

import (
	"time"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// AssignmentCreateRequest describes a new free-text assignment.
type AssignmentCreateRequest struct {
	CourseID uint    `form:"course_id" json:"course_id" validate:"required,gt=0"`
	Title    string  `form:"title" json:"title" validate:"required,min=3,max=200"`
	Content  string  `form:"content" json:"content"`
	MaxScore float64 `form:"max_score" json:"max_score" validate:"required,gt=0"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID            uint      `json:"id"`
	CourseID      uint      `json:"course_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	MaxScore      float64   `json:"max_score"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		Title:         model.Title,
		Content:       model.Content,
		MaxScore:      model.MaxScore,
		AttachmentURL: model.AttachmentURL,
		CreatedAt:     model.CreatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(models []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(models))
	for _, assignment := range models {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
