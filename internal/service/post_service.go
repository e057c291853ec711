package service

import (
	"context"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000
)

type PostService struct {
	postRepo     repository.PostRepository
	reactionRepo repository.ReactionRepository
	isAdmin      AdminChecker
}

type CreatePostInput struct {
	UserID  uint
	GroupID *uint
	Title   string
	Content string
}

type ListPostsInput struct {
	Limit   int
	Offset  int
	UserID  *uint
	GroupID *uint
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Title   string
	Content string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ReactionInput struct {
	UserID uint
	PostID uint
	Type   models.ReactionType
}

func NewPostService(
	postRepo repository.PostRepository,
	reactionRepo repository.ReactionRepository,
	isAdmin AdminChecker,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		reactionRepo: reactionRepo,
		isAdmin:      isAdmin,
	}
}

func validatePost(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, done := traced(ctx, "PostService", "CreatePost")
	defer func() { done(err) }()

	if err := validatePost(in.Title, in.Content); err != nil {
		return nil, err
	}
	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.UserID,
		GroupID: in.GroupID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a live post. Soft-deleted posts read as not found.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.DeletedAt.Valid {
		return nil, models.NewNotFoundError(string(models.KindPost), id)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	switch {
	case in.GroupID != nil:
		return s.postRepo.ListByGroup(ctx, *in.GroupID, in.Limit, in.Offset)
	case in.UserID != nil:
		return s.postRepo.ListByUser(ctx, *in.UserID, in.Limit, in.Offset)
	default:
		return s.postRepo.List(ctx, in.Limit, in.Offset)
	}
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (_ *models.Post, err error) {
	ctx, done := traced(ctx, "PostService", "UpdatePost")
	defer func() { done(err) }()

	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	title, content := post.Title, post.Content
	if in.Title != "" {
		title = in.Title
	}
	if in.Content != "" {
		content = in.Content
	}
	if err := validatePost(title, content); err != nil {
		return nil, err
	}
	return s.postRepo.Update(ctx, in.PostID, title, content)
}

// DeletePost soft-deletes the post. Its comments, reactions and counters are
// kept so a restore brings it back unchanged.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, done := traced(ctx, "PostService", "DeletePost")
	defer func() { done(err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, post.UserID, in.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.SoftDelete(ctx, in.PostID)
}

func (s *PostService) RestorePost(ctx context.Context, in DeletePostInput) (_ *models.Post, err error) {
	ctx, done := traced(ctx, "PostService", "RestorePost")
	defer func() { done(err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, post.UserID, in.UserID, "You can only restore your own posts"); err != nil {
		return nil, err
	}
	if err := s.postRepo.Restore(ctx, in.PostID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, in.PostID)
}

// AddReaction stores the reaction and returns the post with its new count.
func (s *PostService) AddReaction(ctx context.Context, in ReactionInput) (_ *models.Post, err error) {
	ctx, done := traced(ctx, "PostService", "AddReaction")
	defer func() { done(err) }()

	if !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid reaction type")
	}
	if err := s.reactionRepo.Add(ctx, &models.Reaction{
		PostID: in.PostID,
		UserID: in.UserID,
		Type:   in.Type,
	}); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, in.PostID)
}

func (s *PostService) RemoveReaction(ctx context.Context, in ReactionInput) (_ *models.Post, err error) {
	ctx, done := traced(ctx, "PostService", "RemoveReaction")
	defer func() { done(err) }()

	if err := s.reactionRepo.Remove(ctx, in.PostID, in.UserID, in.Type); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, in.PostID)
}

func (s *PostService) ReactionCounts(ctx context.Context, postID uint) (map[models.ReactionType]int64, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.reactionRepo.CountsByType(ctx, postID)
}
