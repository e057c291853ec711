// Package bootstrap wires the process-wide runtime shared by the server and
// the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fellowship/internal/cache"
	"fellowship/internal/config"
	"fellowship/internal/consistency"
	"fellowship/internal/database"
	"fellowship/internal/middleware"
	"fellowship/internal/models"
	"fellowship/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs ApplySchema on connect. Commands that manage the
	// schema themselves turn it off.
	ApplySchema bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is not configured or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{
		ApplySchema:    opts.ApplySchema,
		ConnectReplica: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	if err := seedDevelopment(context.Background(), cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to seed development data: %w", err)
	}
	return db, cache.GetClient(), nil
}

// NewEngine builds the consistency engine with settings from cfg.
func NewEngine(cfg *config.Config, db *gorm.DB) *consistency.Engine {
	opts := []consistency.Option{consistency.WithLogger(middleware.Logger)}
	if cfg.ReconcileConcurrency > 0 {
		opts = append(opts, consistency.WithRecomputeConcurrency(cfg.ReconcileConcurrency))
	}
	return consistency.NewEngine(db, opts...)
}

// seedDevelopment fills an empty development database when DEV_SEED is set.
func seedDevelopment(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !cfg.DevSeed {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		middleware.Logger.Warn("DEV_SEED ignored outside development", slog.String("env", cfg.Env))
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	opts := seed.DefaultOptions()
	opts.SkipBcrypt = true
	_, err := seed.Seed(ctx, db, NewEngine(cfg, db), opts)
	return err
}
