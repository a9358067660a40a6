package models

import "time"

// Quiz is an objective multiple-choice test owned by a course.
type Quiz struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CourseID        uint       `gorm:"index;not null" json:"course_id"`
	LessonID        *uint      `gorm:"index" json:"lesson_id"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
	Questions       []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question is a multiple-choice question. CorrectAnswer holds the option
// code ("A".."D") and is authoritative for scoring.
type Question struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	QuizID        uint   `gorm:"index;not null" json:"quiz_id"`
	Content       string `gorm:"type:text;not null" json:"content"`
	OptionA       string `gorm:"size:200" json:"option_a"`
	OptionB       string `gorm:"size:200" json:"option_b"`
	OptionC       string `gorm:"size:200" json:"option_c"`
	OptionD       string `gorm:"size:200" json:"option_d"`
	CorrectAnswer string `gorm:"size:10;not null" json:"-"`
}
