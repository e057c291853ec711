package database

import "fellowship/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Reaction{},
		&models.Prayer{},
		&models.PrayerCommit{},
		&models.XpEvent{},
		&models.XpTotals{},
		&models.Event{},
		&models.EventRsvp{},
		&models.Mentorship{},
		&models.MentorSession{},
		&models.Notification{},
		&models.RefreshToken{},
		&models.PasswordReset{},
		&models.MagicLink{},
		&models.Device{},
		&models.ModerationAction{},
		&models.AuditLog{},
		&models.AIResponse{},
		&models.AIUsage{},
		&models.FeatureFlag{},
	}
}
