package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupVisibility controls who can see a group's content.
type GroupVisibility string

const (
	// GroupVisibilityPublic groups are listed and readable by anyone.
	GroupVisibilityPublic GroupVisibility = "public"
	// GroupVisibilityPrivate groups are readable by members only.
	GroupVisibilityPrivate GroupVisibility = "private"
)

// Group represents a community space. Deleting a group detaches its posts,
// prayers and events instead of removing them.
type Group struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:120;not null" json:"name"`
	Slug        string          `gorm:"size:48;not null;uniqueIndex" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	CreatorID   uint            `gorm:"not null;index" json:"creator_id"`
	Visibility  GroupVisibility `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}
