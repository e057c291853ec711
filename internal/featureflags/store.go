package featureflags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fellowship/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes flag values in the feature_flags table. It does not
// cache; every call hits the database.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored value for key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var flag models.FeatureFlag
	err := s.db.WithContext(ctx).Where("key = ?", normalize(key)).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", models.NewNotFoundError("feature flag", key)
	}
	if err != nil {
		return "", err
	}
	return flag.Value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	key, value = normalize(key), normalize(value)
	if key == "" {
		return models.NewValidationError("flag key is required")
	}
	if !ValidValue(value) {
		return models.NewValidationError(fmt.Sprintf("invalid flag value %q", value))
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.FeatureFlag{Key: key, Value: value, UpdatedAt: time.Now().UTC()}).Error
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", normalize(key)).Delete(&models.FeatureFlag{}).Error
}

// List returns every stored flag.
func (s *Store) List(ctx context.Context) (map[string]string, error) {
	var flags []models.FeatureFlag
	if err := s.db.WithContext(ctx).Order("key").Find(&flags).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		out[f.Key] = f.Value
	}
	return out, nil
}

// Manager snapshots the stored flags layered over base.
func (s *Store) Manager(ctx context.Context, base *Manager) (*Manager, error) {
	values, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return base.Merge(NewManagerFromMap(values)), nil
}
