package models

import "time"

// ReactionType enumerates the reactions a user can leave on a post.
type ReactionType string

const (
	ReactionLike   ReactionType = "LIKE"
	ReactionAmen   ReactionType = "AMEN"
	ReactionPrayer ReactionType = "PRAYER"
)

// Valid reports whether t is a known reaction type.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionAmen, ReactionPrayer:
		return true
	}
	return false
}

// Reaction is a hard-delete-only fact. A user holds at most one reaction of
// each type per post.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reactions_post_user_type" json:"post_id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reactions_post_user_type;index" json:"user_id"`
	Type      ReactionType `gorm:"type:varchar(16);not null;uniqueIndex:idx_reactions_post_user_type" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Reaction) TableName() string {
	return "reactions"
}
