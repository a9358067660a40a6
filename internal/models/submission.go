package models

import (
	"time"

	"gorm.io/datatypes"
)

// Grading source tags stored in Submission.GradedBy.
const (
	GradedByAI      = "AI_Bot"
	GradedByTeacher = "Teacher"
)

// Submission is a student's free-text answer to an assignment, at most one
// per (assignment, student) pair. Resubmission replaces the answer, clears
// every score field and bumps AnswerVersion; a background grading task
// carrying an older version must discard its result.
type Submission struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	AssignmentID    uint              `gorm:"uniqueIndex:idx_submission_assignment_student;not null" json:"assignment_id"`
	StudentID       uint              `gorm:"uniqueIndex:idx_submission_assignment_student;not null" json:"student_id"`
	Answer          string            `gorm:"type:text;not null" json:"answer"`
	AnswerVersion   uint              `gorm:"not null;default:1" json:"answer_version"`
	AIScore         *float64          `json:"ai_score"`
	AIFeedback      string            `gorm:"type:text" json:"ai_feedback"`
	TeacherScore    *float64          `json:"teacher_score"`
	TeacherFeedback string            `gorm:"type:text" json:"teacher_feedback"`
	GradedBy        *string           `gorm:"size:50" json:"graded_by"`
	GradeDetails    datatypes.JSONMap `json:"grade_details,omitempty"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Assignment      Assignment        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student         Student           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsGraded reports whether any grading source has written a score.
func (s Submission) IsGraded() bool {
	return s.GradedBy != nil
}

// HasTeacherGrade reports whether a teacher override is in place for the
// current answer version.
func (s Submission) HasTeacherGrade() bool {
	return s.GradedBy != nil && *s.GradedBy == GradedByTeacher
}
