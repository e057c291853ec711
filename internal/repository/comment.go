package repository

import (
	"context"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	Update(ctx context.Context, id uint, content string) (*models.Comment, error)
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	Purge(ctx context.Context, id uint) error
}

type commentRepository struct {
	db     *gorm.DB
	engine *consistency.Engine
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB, engine *consistency.Engine) CommentRepository {
	return &commentRepository{db: db, engine: engine}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.engine.InsertComment(ctx, comment)
}

// GetByID finds a comment in any soft-delete state.
func (r *commentRepository) GetByID(ctx context.Context, id uint) (_ *models.Comment, err error) {
	ctx, done := track(ctx, "GetByID", "comments")
	defer func() { done(err) }()

	var comment models.Comment
	if err := readDB(r.db).WithContext(ctx).Unscoped().First(&comment, id).Error; err != nil {
		return nil, notFound(err, models.KindComment, id)
	}
	return &comment, nil
}

// ListByPost returns live comments on a post, oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) (_ []*models.Comment, err error) {
	ctx, done := track(ctx, "ListByPost", "comments")
	defer func() { done(err) }()

	limit, offset = page(limit, offset)
	var comments []*models.Comment
	err = readDB(r.db).WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at asc").
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, translate(err)
}

// Update edits a live comment's content.
func (r *commentRepository) Update(ctx context.Context, id uint, content string) (_ *models.Comment, err error) {
	ctx, done := track(ctx, "Update", "comments")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError(string(models.KindComment), id)
	}
	return r.GetByID(ctx, id)
}

func (r *commentRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.engine.SoftDeleteFact(ctx, models.FactComment, id)
}

func (r *commentRepository) Restore(ctx context.Context, id uint) error {
	return r.engine.RestoreFact(ctx, models.FactComment, id)
}

// Purge hard-deletes a comment in any state.
func (r *commentRepository) Purge(ctx context.Context, id uint) error {
	return r.engine.DeleteFact(ctx, models.FactComment, id)
}
