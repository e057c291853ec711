package service

import (
	"context"
	"fmt"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	isAdmin     AdminChecker
	rewards     *Rewarder
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	isAdmin AdminChecker,
	rewards *Rewarder,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		isAdmin:     isAdmin,
		rewards:     rewards,
	}
}

func validateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

// CreateComment stores the comment, which bumps the post's comment count in
// the same transaction, then awards kindness XP to the author.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (_ *models.Comment, err error) {
	ctx, done := traced(ctx, "CommentService", "CreateComment")
	defer func() { done(err) }()

	if err := validateComment(in.Content); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.rewards.Award(ctx, in.UserID, models.FruitKindness, CommentKindnessXP, fmt.Sprintf("comment:%d", comment.ID))
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}
	if comment.IsDeleted() {
		return nil, models.NewValidationError("Deleted comments cannot be edited")
	}
	if err := validateComment(in.Content); err != nil {
		return nil, err
	}
	return s.commentRepo.Update(ctx, in.CommentID, in.Content)
}

// DeleteComment soft-deletes the comment. Deleting an already deleted
// comment is a no-op.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (_ *models.Comment, err error) {
	ctx, done := traced(ctx, "CommentService", "DeleteComment")
	defer func() { done(err) }()

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, comment.UserID, in.UserID, "You can only delete your own comments"); err != nil {
		return nil, err
	}
	if err := s.commentRepo.SoftDelete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, in.CommentID)
}

func (s *CommentService) RestoreComment(ctx context.Context, in DeleteCommentInput) (_ *models.Comment, err error) {
	ctx, done := traced(ctx, "CommentService", "RestoreComment")
	defer func() { done(err) }()

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, comment.UserID, in.UserID, "You can only restore your own comments"); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Restore(ctx, in.CommentID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, in.CommentID)
}

// PurgeComment removes the row for good. Only admins may purge.
func (s *CommentService) PurgeComment(ctx context.Context, in DeleteCommentInput) (err error) {
	ctx, done := traced(ctx, "CommentService", "PurgeComment")
	defer func() { done(err) }()

	if _, err := s.commentRepo.GetByID(ctx, in.CommentID); err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, 0, in.UserID, "Only admins can purge comments"); err != nil {
		return err
	}
	return s.commentRepo.Purge(ctx, in.CommentID)
}
