package dto

import (
	"time"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// NotificationResponse serializes one inbox entry.
type NotificationResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// BroadcastRequest sends one message to every student enrolled in a course.
type BroadcastRequest struct {
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
	Message  string `json:"message" validate:"required,min=3"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		ReferenceID: model.ReferenceID,
		Message:     model.Message,
		IsRead:      model.IsRead,
		CreatedAt:   model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(models []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(models))
	for _, notification := range models {
		responses = append(responses, NewNotificationResponse(notification))
	}

	return responses
}
