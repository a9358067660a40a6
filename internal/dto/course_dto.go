package dto

import (
	"time"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

// CourseCreateRequest describes a new course created by a manager.
type CourseCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	TeacherID   uint    `json:"teacher_id" validate:"required,gt=0"`
}

// LessonCreateRequest adds a lesson to an existing course.
type LessonCreateRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=200"`
	Content string `json:"content"`
}

// CourseResponse is returned to API clients when browsing the catalog.
type CourseResponse struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Status      string           `json:"status"`
	TeacherID   uint             `json:"teacher_id"`
	Lessons     []LessonResponse `json:"lessons,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// LessonResponse summarizes course content.
type LessonResponse struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// EnrollmentResponse confirms a student's course access.
type EnrollmentResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	StudentID uint      `json:"student_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	lessons := make([]LessonResponse, 0, len(model.Lessons))
	for _, lesson := range model.Lessons {
		lessons = append(lessons, LessonResponse{
			ID:      lesson.ID,
			Title:   lesson.Title,
			Content: lesson.Content,
		})
	}

	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Price:       model.Price,
		Status:      model.Status,
		TeacherID:   model.TeacherID,
		Lessons:     lessons,
		CreatedAt:   model.CreatedAt,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(models []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(models))
	for _, course := range models {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		StudentID: model.StudentID,
		Amount:    model.Amount,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
	}
}
