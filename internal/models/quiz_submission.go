package models

import "time"

// QuizSubmission is one quiz attempt. The score is fixed at submit time and
// never recomputed; the attempt row and its answers are created in a single
// transaction.
type QuizSubmission struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	QuizID      uint         `gorm:"index;not null" json:"quiz_id"`
	StudentID   uint         `gorm:"index;not null" json:"student_id"`
	Score       float64      `gorm:"not null" json:"score"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Answers     []QuizAnswer `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// QuizAnswer records the option a student picked for one question.
// Correctness is evaluated once, at creation.
type QuizAnswer struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	QuizSubmissionID uint   `gorm:"index;not null" json:"quiz_submission_id"`
	QuestionID       uint   `gorm:"not null" json:"question_id"`
	SelectedOption   string `gorm:"size:10" json:"selected_option"`
	IsCorrect        bool   `json:"is_correct"`
}
