package models

import "time"

// Mentorship pairs a mentor with a mentee.
type Mentorship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MentorID  uint      `gorm:"not null;index" json:"mentor_id"`
	MenteeID  uint      `gorm:"not null;index" json:"mentee_id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Mentorship) TableName() string {
	return "mentorships"
}

// MentorSession is a meeting held within a mentorship.
type MentorSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MentorshipID uint      `gorm:"not null;index" json:"mentorship_id"`
	ScheduledAt  time.Time `gorm:"not null" json:"scheduled_at"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (MentorSession) TableName() string {
	return "mentor_sessions"
}
