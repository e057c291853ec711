package models

import (
	"time"

	"gorm.io/gorm"
)

// PrayerStatus is the application-driven lifecycle of a prayer request.
// Any status may move to any other.
type PrayerStatus string

const (
	PrayerStatusOpen     PrayerStatus = "OPEN"
	PrayerStatusAnswered PrayerStatus = "ANSWERED"
	PrayerStatusArchived PrayerStatus = "ARCHIVED"
)

// Valid reports whether s is a known prayer status.
func (s PrayerStatus) Valid() bool {
	switch s {
	case PrayerStatusOpen, PrayerStatusAnswered, PrayerStatusArchived:
		return true
	}
	return false
}

// Prayer is a prayer request. LinkedPostID is a weak reference; the post has
// no pointer back.
type Prayer struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	GroupID      *uint        `gorm:"index" json:"group_id,omitempty"`
	LinkedPostID *uint        `gorm:"index" json:"linked_post_id,omitempty"`
	Title        string       `gorm:"size:200;not null" json:"title"`
	Body         string       `gorm:"type:text" json:"body"`
	Status       PrayerStatus `gorm:"type:varchar(16);not null;default:'OPEN'" json:"status"`
	// CommitCount tracks prayer commits. Written only by the consistency engine.
	CommitCount int64          `gorm:"->;<-:create;not null;default:0" json:"commit_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Prayer) TableName() string {
	return "prayers"
}

// PrayerCommit records a user committing to pray. Immutable once written.
type PrayerCommit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PrayerID  uint      `gorm:"not null;index" json:"prayer_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Message   *string   `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (PrayerCommit) TableName() string {
	return "prayer_commits"
}
