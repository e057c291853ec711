package models

import "time"

// FeatureFlag is a process-wide key/value toggle.
type FeatureFlag struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"size:100;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (FeatureFlag) TableName() string {
	return "feature_flags"
}
