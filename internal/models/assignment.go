package models

import "time"

// Assignment is a free-text task graded by the AI pipeline with teacher
// override.
type Assignment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseID      uint      `gorm:"index;not null" json:"course_id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	MaxScore      float64   `gorm:"not null" json:"max_score"`
	AttachmentURL string    `gorm:"size:512" json:"attachment_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuestionText returns the text handed to the grader, falling back to the
// title when no long-form content was authored.
func (a Assignment) QuestionText() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Title
}
