package repository

import (
	"context"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, id uint, title, content string) (*models.Post, error)
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	Recount(ctx context.Context, id uint) (*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db     *gorm.DB
	engine *consistency.Engine
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, engine *consistency.Engine) PostRepository {
	return &postRepository{db: db, engine: engine}
}

// Create inserts the post with both counters at zero.
func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, done := track(ctx, "Create", "posts")
	defer func() { done(err) }()

	post.CommentCount = 0
	post.ReactionCount = 0
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

// GetByID finds a post in any soft-delete state.
func (r *postRepository) GetByID(ctx context.Context, id uint) (_ *models.Post, err error) {
	ctx, done := track(ctx, "GetByID", "posts")
	defer func() { done(err) }()

	var post models.Post
	if err := readDB(r.db).WithContext(ctx).Unscoped().First(&post, id).Error; err != nil {
		return nil, notFound(err, models.KindPost, id)
	}
	return &post, nil
}

func (r *postRepository) list(ctx context.Context, method string, limit, offset int, scope func(*gorm.DB) *gorm.DB) (_ []*models.Post, err error) {
	ctx, done := track(ctx, method, "posts")
	defer func() { done(err) }()

	limit, offset = page(limit, offset)
	var posts []*models.Post
	err = scope(readDB(r.db).WithContext(ctx).Model(&models.Post{})).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, translate(err)
}

// List returns live posts, newest first.
func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.list(ctx, "List", limit, offset, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return r.list(ctx, "ListByUser", limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Post, error) {
	return r.list(ctx, "ListByGroup", limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", groupID)
	})
}

// Update edits title and content. Counters are never written here.
func (r *postRepository) Update(ctx context.Context, id uint, title, content string) (_ *models.Post, err error) {
	ctx, done := track(ctx, "Update", "posts")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":   title,
		"content": content,
	})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError(string(models.KindPost), id)
	}
	return r.GetByID(ctx, id)
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.engine.SoftDeleteOwner(ctx, models.KindPost, id)
}

func (r *postRepository) Restore(ctx context.Context, id uint) error {
	return r.engine.RestoreOwner(ctx, models.KindPost, id)
}

// Delete removes the post along with its comments and reactions and unlinks
// prayers that referenced it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.engine.DeleteOwner(ctx, models.KindPost, id)
}

func (r *postRepository) Recount(ctx context.Context, id uint) (*models.Post, error) {
	return r.engine.RecountPost(ctx, id)
}
