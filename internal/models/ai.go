package models

import "time"

// AIResponse stores generated content. Kept for analytics after the user is
// deleted.
type AIResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	Model     string    `gorm:"size:64" json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (AIResponse) TableName() string {
	return "ai_responses"
}

// AIUsage is a token/cost accounting row.
type AIUsage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       *uint     `gorm:"index" json:"user_id,omitempty"`
	PromptTokens int       `gorm:"not null;default:0" json:"prompt_tokens"`
	OutputTokens int       `gorm:"not null;default:0" json:"output_tokens"`
	CostMicros   int64     `gorm:"not null;default:0" json:"cost_micros"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (AIUsage) TableName() string {
	return "ai_usages"
}
