package seed

import (
	"context"
	"fmt"
	"strings"

	"fellowship/internal/consistency"
	"fellowship/internal/models"
	"fellowship/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultPassword = "password123"

// Factory builds domain entities and persists them through the repositories,
// so every fact it writes keeps its parent counters in step.
type Factory struct {
	faker     *gofakeit.Faker
	users     repository.UserRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	prayers   repository.PrayerRepository
	xp        repository.XpRepository

	passwordHash string
}

// NewFactory creates a Factory bound to db. A zero randSeed picks a random one.
func NewFactory(db *gorm.DB, engine *consistency.Engine, randSeed int64, skipBcrypt bool) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if skipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		faker:        gofakeit.New(randSeed),
		users:        repository.NewUserRepository(db, engine),
		posts:        repository.NewPostRepository(db, engine),
		comments:     repository.NewCommentRepository(db, engine),
		reactions:    repository.NewReactionRepository(db, engine),
		prayers:      repository.NewPrayerRepository(db, engine),
		xp:           repository.NewXpRepository(db, engine),
		passwordHash: string(hash),
	}, nil
}

// CreateUser persists a member with a unique username. Overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	base := strings.ToLower(f.faker.Username())
	if len(base) > 32 {
		base = base[:32]
	}
	username := base + "_" + uuid.NewString()[:8]

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: f.passwordHash,
		Bio:      f.faker.Sentence(10),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post authored by user.
func (f *Factory) CreatePost(ctx context.Context, user *models.User) (*models.Post, error) {
	post := &models.Post{
		Title:   strings.TrimSuffix(f.faker.Sentence(5), "."),
		Content: f.faker.Paragraph(1, 3, 12, "\n"),
		UserID:  user.ID,
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// AddComment persists a comment by author on post.
func (f *Factory) AddComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:  post.ID,
		UserID:  author.ID,
		Content: f.faker.Sentence(f.faker.Number(4, 16)),
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

var reactionTypes = []models.ReactionType{models.ReactionLike, models.ReactionAmen, models.ReactionPrayer}

// React persists a random reaction by user on post.
func (f *Factory) React(ctx context.Context, post *models.Post, user *models.User) (*models.Reaction, error) {
	reaction := &models.Reaction{
		PostID: post.ID,
		UserID: user.ID,
		Type:   reactionTypes[f.faker.Number(0, len(reactionTypes)-1)],
	}
	if err := f.reactions.Add(ctx, reaction); err != nil {
		return nil, err
	}
	return reaction, nil
}

// CreatePrayer persists an open prayer request by user.
func (f *Factory) CreatePrayer(ctx context.Context, user *models.User) (*models.Prayer, error) {
	prayer := &models.Prayer{
		UserID: user.ID,
		Title:  "Prayer for " + strings.ToLower(f.faker.Noun()),
		Body:   f.faker.Paragraph(1, 2, 10, "\n"),
		Status: models.PrayerStatusOpen,
	}
	if err := f.prayers.Create(ctx, prayer); err != nil {
		return nil, err
	}
	return prayer, nil
}

// Commit records user praying for prayer, sometimes with a short message.
func (f *Factory) Commit(ctx context.Context, prayer *models.Prayer, user *models.User) (*models.PrayerCommit, error) {
	commit := &models.PrayerCommit{PrayerID: prayer.ID, UserID: user.ID}
	if f.faker.Bool() {
		msg := f.faker.Sentence(6)
		commit.Message = &msg
	}
	if err := f.prayers.Commit(ctx, commit); err != nil {
		return nil, err
	}
	return commit, nil
}

// RecordXp appends a random positive XP event for user.
func (f *Factory) RecordXp(ctx context.Context, user *models.User) (*models.XpEvent, error) {
	return f.xp.Record(ctx, consistency.XpEventInput{
		UserID: user.ID,
		Fruit:  models.Fruits[f.faker.Number(0, len(models.Fruits)-1)],
		Amount: int64(f.faker.Number(1, 10)),
		Reason: "seed",
	})
}

// pick returns n distinct users chosen at random, capped at len(users).
func (f *Factory) pick(users []*models.User, n int) []*models.User {
	if n <= 0 {
		return nil
	}
	if n > len(users) {
		n = len(users)
	}
	shuffled := append([]*models.User(nil), users...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := f.faker.Number(0, i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}
