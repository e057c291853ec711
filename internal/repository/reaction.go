package repository

import (
	"context"
	"fmt"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines persistence operations for post reactions.
type ReactionRepository interface {
	Add(ctx context.Context, reaction *models.Reaction) error
	Remove(ctx context.Context, postID, userID uint, reactionType models.ReactionType) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Reaction, error)
	CountsByType(ctx context.Context, postID uint) (map[models.ReactionType]int64, error)
}

type reactionRepository struct {
	db     *gorm.DB
	engine *consistency.Engine
}

// NewReactionRepository returns a new ReactionRepository implementation.
func NewReactionRepository(db *gorm.DB, engine *consistency.Engine) ReactionRepository {
	return &reactionRepository{db: db, engine: engine}
}

// Add stores the reaction. A repeat of the same (post, user, type) fails with
// a unique violation.
func (r *reactionRepository) Add(ctx context.Context, reaction *models.Reaction) error {
	return r.engine.InsertReaction(ctx, reaction)
}

// Remove deletes the user's reaction of the given type on a post.
func (r *reactionRepository) Remove(ctx context.Context, postID, userID uint, reactionType models.ReactionType) error {
	if !reactionType.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown reaction type %q", reactionType))
	}
	return r.engine.Transaction(ctx, func(tx *consistency.Tx) error {
		var ids []uint
		err := tx.DB().Model(&models.Reaction{}).
			Where("post_id = ? AND user_id = ? AND type = ?", postID, userID, reactionType).
			Limit(1).
			Pluck("id", &ids).Error
		if err != nil {
			return translate(err)
		}
		if len(ids) == 0 {
			return models.NewNotFoundError(string(models.KindReaction), fmt.Sprintf("%d/%d/%s", postID, userID, reactionType))
		}
		return tx.DeleteFact(models.FactReaction, ids[0])
	})
}

func (r *reactionRepository) ListByPost(ctx context.Context, postID uint) (_ []*models.Reaction, err error) {
	ctx, done := track(ctx, "ListByPost", "reactions")
	defer func() { done(err) }()

	var reactions []*models.Reaction
	err = readDB(r.db).WithContext(ctx).Where("post_id = ?", postID).Order("id").Find(&reactions).Error
	return reactions, translate(err)
}

type typeCount struct {
	Type  models.ReactionType
	Total int64
}

// CountsByType groups a post's reactions by type. The sum equals the post's
// reaction_count.
func (r *reactionRepository) CountsByType(ctx context.Context, postID uint) (_ map[models.ReactionType]int64, err error) {
	ctx, done := track(ctx, "CountsByType", "reactions")
	defer func() { done(err) }()

	var rows []typeCount
	err = readDB(r.db).WithContext(ctx).Model(&models.Reaction{}).
		Select("type, COUNT(*) AS total").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	out := make(map[models.ReactionType]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Total
	}
	return out, nil
}
