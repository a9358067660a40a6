package models

import "time"

// Notification is a message delivered to one user's inbox.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	ReferenceID string    `gorm:"size:64;index" json:"reference_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
