// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a post authored by a user, optionally inside a group.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	GroupID *uint  `gorm:"index" json:"group_id,omitempty"`
	// CommentCount tracks live (not soft-deleted) comments. Written only by the consistency engine.
	CommentCount int64 `gorm:"->;<-:create;not null;default:0" json:"comment_count"`
	// ReactionCount tracks reactions of every type. Written only by the consistency engine.
	ReactionCount int64          `gorm:"->;<-:create;not null;default:0" json:"reaction_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}
