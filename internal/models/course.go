package models

import "time"

// Course groups lessons, quizzes and assignments under a teacher.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `json:"price"`
	Status      string    `gorm:"size:20;default:active" json:"status"`
	TeacherID   uint      `gorm:"index" json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Lessons     []Lesson  `gorm:"constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

const (
	// CourseStatusActive marks a course visible in the student catalog.
	CourseStatusActive = "active"
	// CourseStatusArchived hides a course from new enrollments.
	CourseStatusArchived = "archived"
)

// Lesson is a unit of course content.
type Lesson struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment records that a student paid for and may access a course.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"uniqueIndex:idx_enrollment_student_course;not null" json:"student_id"`
	CourseID  uint      `gorm:"uniqueIndex:idx_enrollment_student_course;not null" json:"course_id"`
	Amount    float64   `json:"amount"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Student   Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

const (
	// EnrollmentStatusPaid grants course access.
	EnrollmentStatusPaid = "paid"
	// EnrollmentStatusPending keeps access locked until payment settles.
	EnrollmentStatusPending = "pending"
)

// IsActive reports whether the enrollment grants access to course content.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusPaid
}
