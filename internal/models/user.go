package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles known to the platform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// ParseRole normalizes a raw role string into a Role value.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleManager, RoleTeacher, RoleStudent, RoleParent:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTeacher, RoleStudent, RoleParent:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// User is a platform account. Profile rows hold role-specific attributes.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:100;not null" json:"full_name"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Role      Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Student is the student profile attached to a User account.
type Student struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	StudentCode string `gorm:"size:20;uniqueIndex" json:"student_code"`
	GradeLevel  string `gorm:"size:50" json:"grade_level"`
	User        User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// Teacher is the teacher profile attached to a User account.
type Teacher struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	TeacherCode    string `gorm:"size:20;uniqueIndex" json:"teacher_code"`
	Specialization string `gorm:"size:100" json:"specialization"`
	User           User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// Parent is the parent profile attached to a User account. Children is the
// set of students the parent may monitor.
type Parent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PhoneNumber string    `gorm:"size:20" json:"phone_number"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Children    []Student `gorm:"many2many:parent_students" json:"children"`
}
