// Package seed fills a database with demo members, posts, prayers and XP for
// development and testing. All facts go through the consistency engine.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"fellowship/internal/consistency"
	"fellowship/internal/database"
	"fellowship/internal/middleware"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// Options sizes a seed run.
type Options struct {
	Users            int
	PostsPerUser     int
	CommentsPerPost  int
	ReactionsPerPost int
	PrayersPerUser   int
	CommitsPerPrayer int
	XpEventsPerUser  int

	// Clean deletes every row from the registered tables first.
	Clean bool
	// SkipBcrypt hashes the shared password at minimum cost.
	SkipBcrypt bool
	// RandSeed makes the generated content reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions returns a small community suitable for local development.
func DefaultOptions() Options {
	return Options{
		Users:            12,
		PostsPerUser:     3,
		CommentsPerPost:  4,
		ReactionsPerPost: 5,
		PrayersPerUser:   1,
		CommitsPerPrayer: 3,
		XpEventsPerUser:  4,
	}
}

// Report counts what a seed run created.
type Report struct {
	Users     int
	Posts     int
	Comments  int
	Reactions int
	Prayers   int
	Commits   int
	XpEvents  int
}

// Seed populates db according to opts.
func Seed(ctx context.Context, db *gorm.DB, engine *consistency.Engine, opts Options) (*Report, error) {
	if opts.Users <= 0 {
		return nil, models.NewValidationError("seed needs at least one user")
	}
	log := middleware.Logger.With(slog.String("component", "seed"))

	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
		log.Info("Cleared existing data")
	}

	f, err := NewFactory(db, engine, opts.RandSeed, opts.SkipBcrypt)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return report, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	report.Users = len(users)

	for _, author := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post, err := f.CreatePost(ctx, author)
			if err != nil {
				return report, fmt.Errorf("create post: %w", err)
			}
			report.Posts++

			for j := 0; j < opts.CommentsPerPost; j++ {
				commenter := users[f.faker.Number(0, len(users)-1)]
				if _, err := f.AddComment(ctx, post, commenter); err != nil {
					return report, fmt.Errorf("add comment: %w", err)
				}
				report.Comments++
			}

			// Reactions are unique per (post, user, type); distinct users avoid collisions.
			for _, reactor := range f.pick(users, opts.ReactionsPerPost) {
				if _, err := f.React(ctx, post, reactor); err != nil {
					return report, fmt.Errorf("add reaction: %w", err)
				}
				report.Reactions++
			}
		}

		for i := 0; i < opts.PrayersPerUser; i++ {
			prayer, err := f.CreatePrayer(ctx, author)
			if err != nil {
				return report, fmt.Errorf("create prayer: %w", err)
			}
			report.Prayers++

			for _, intercessor := range f.pick(users, opts.CommitsPerPrayer) {
				if _, err := f.Commit(ctx, prayer, intercessor); err != nil {
					return report, fmt.Errorf("commit prayer: %w", err)
				}
				report.Commits++
			}
		}

		for i := 0; i < opts.XpEventsPerUser; i++ {
			if _, err := f.RecordXp(ctx, author); err != nil {
				return report, fmt.Errorf("record xp: %w", err)
			}
			report.XpEvents++
		}
	}

	log.Info("Seeding complete",
		slog.Int("users", report.Users),
		slog.Int("posts", report.Posts),
		slog.Int("comments", report.Comments),
		slog.Int("reactions", report.Reactions),
		slog.Int("prayers", report.Prayers),
		slog.Int("commits", report.Commits),
		slog.Int("xp_events", report.XpEvents),
	)
	return report, nil
}

// Clean deletes all rows from every registered table, dependents first.
func Clean(ctx context.Context, db *gorm.DB) error {
	all := database.PersistentModels()
	slices.Reverse(all)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
		for _, model := range all {
			if err := wipe.Delete(model).Error; err != nil {
				return fmt.Errorf("clean %T: %w", model, err)
			}
		}
		return nil
	})
}
