package models

import "time"

// RsvpStatus is an attendee's answer to an event invitation.
type RsvpStatus string

const (
	RsvpGoing    RsvpStatus = "going"
	RsvpMaybe    RsvpStatus = "maybe"
	RsvpDeclined RsvpStatus = "declined"
)

// Event is a scheduled gathering. EndsAt must be after StartsAt.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	GroupID     *uint     `gorm:"index" json:"group_id,omitempty"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:255" json:"location,omitempty"`
	StartsAt    time.Time `gorm:"not null" json:"starts_at"`
	EndsAt      time.Time `gorm:"not null;check:chk_events_time_range,ends_at > starts_at" json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Event) TableName() string {
	return "events"
}

// EventRsvp links a user to an event.
type EventRsvp struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	EventID   uint       `gorm:"not null;uniqueIndex:idx_event_rsvps_event_user" json:"event_id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_event_rsvps_event_user;index" json:"user_id"`
	Status    RsvpStatus `gorm:"type:varchar(16);not null;default:'going'" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (EventRsvp) TableName() string {
	return "event_rsvps"
}
