package models

import "time"

// ModerationAction records a moderator decision. It is removed along with
// the acting user.
type ModerationAction struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ActorID    uint       `gorm:"not null;index" json:"actor_id"`
	TargetKind EntityKind `gorm:"type:varchar(32);not null" json:"target_kind"`
	TargetID   uint       `gorm:"not null" json:"target_id"`
	Action     string     `gorm:"size:50;not null" json:"action"`
	Reason     string     `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ModerationAction) TableName() string {
	return "moderation_actions"
}

// AuditLog outlives its actor; ActorID is nulled when the user is deleted.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   *uint     `gorm:"index" json:"actor_id,omitempty"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Details   *string   `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
