package service

import (
	"context"
	"fmt"
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/repository"
)

const (
	maxPrayerTitleLen = 200
	maxPrayerBodyLen  = 10000
)

type PrayerService struct {
	prayerRepo repository.PrayerRepository
	isAdmin    AdminChecker
	rewards    *Rewarder
}

type CreatePrayerInput struct {
	UserID       uint
	GroupID      *uint
	LinkedPostID *uint
	Title        string
	Body         string
}

type UpdatePrayerStatusInput struct {
	UserID   uint
	PrayerID uint
	Status   models.PrayerStatus
}

type DeletePrayerInput struct {
	UserID   uint
	PrayerID uint
}

type CommitPrayerInput struct {
	UserID   uint
	PrayerID uint
	Message  string
}

type DeleteCommitInput struct {
	UserID   uint
	CommitID uint
}

func NewPrayerService(prayerRepo repository.PrayerRepository, isAdmin AdminChecker, rewards *Rewarder) *PrayerService {
	return &PrayerService{
		prayerRepo: prayerRepo,
		isAdmin:    isAdmin,
		rewards:    rewards,
	}
}

func (s *PrayerService) CreatePrayer(ctx context.Context, in CreatePrayerInput) (_ *models.Prayer, err error) {
	ctx, done := traced(ctx, "PrayerService", "CreatePrayer")
	defer func() { done(err) }()

	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxPrayerTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if len(in.Body) > maxPrayerBodyLen {
		return nil, models.NewValidationError("Body too long (max 10000 characters)")
	}
	prayer := &models.Prayer{
		UserID:       in.UserID,
		GroupID:      in.GroupID,
		LinkedPostID: in.LinkedPostID,
		Title:        in.Title,
		Body:         in.Body,
		Status:       models.PrayerStatusOpen,
	}
	if err := s.prayerRepo.Create(ctx, prayer); err != nil {
		return nil, err
	}
	return s.prayerRepo.GetByID(ctx, prayer.ID)
}

// GetPrayer returns a live prayer. Soft-deleted prayers read as not found.
func (s *PrayerService) GetPrayer(ctx context.Context, id uint) (*models.Prayer, error) {
	prayer, err := s.prayerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prayer.DeletedAt.Valid {
		return nil, models.NewNotFoundError(string(models.KindPrayer), id)
	}
	return prayer, nil
}

func (s *PrayerService) ListPrayers(ctx context.Context, status models.PrayerStatus, limit, offset int) ([]*models.Prayer, error) {
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Invalid status %q", status))
	}
	return s.prayerRepo.List(ctx, status, limit, offset)
}

// UpdateStatus moves the prayer to any status, including back to OPEN.
func (s *PrayerService) UpdateStatus(ctx context.Context, in UpdatePrayerStatusInput) (_ *models.Prayer, err error) {
	ctx, done := traced(ctx, "PrayerService", "UpdateStatus")
	defer func() { done(err) }()

	prayer, err := s.GetPrayer(ctx, in.PrayerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, prayer.UserID, in.UserID, "You can only update your own prayers"); err != nil {
		return nil, err
	}
	return s.prayerRepo.UpdateStatus(ctx, in.PrayerID, in.Status)
}

func (s *PrayerService) DeletePrayer(ctx context.Context, in DeletePrayerInput) (err error) {
	ctx, done := traced(ctx, "PrayerService", "DeletePrayer")
	defer func() { done(err) }()

	prayer, err := s.prayerRepo.GetByID(ctx, in.PrayerID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, prayer.UserID, in.UserID, "You can only delete your own prayers"); err != nil {
		return err
	}
	return s.prayerRepo.SoftDelete(ctx, in.PrayerID)
}

func (s *PrayerService) RestorePrayer(ctx context.Context, in DeletePrayerInput) (_ *models.Prayer, err error) {
	ctx, done := traced(ctx, "PrayerService", "RestorePrayer")
	defer func() { done(err) }()

	prayer, err := s.prayerRepo.GetByID(ctx, in.PrayerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, prayer.UserID, in.UserID, "You can only restore your own prayers"); err != nil {
		return nil, err
	}
	if err := s.prayerRepo.Restore(ctx, in.PrayerID); err != nil {
		return nil, err
	}
	return s.prayerRepo.GetByID(ctx, in.PrayerID)
}

// Commit records that the user is praying. The prayer's commit count moves in
// the same transaction; the committer then earns faithfulness XP.
func (s *PrayerService) Commit(ctx context.Context, in CommitPrayerInput) (_ *models.PrayerCommit, err error) {
	ctx, done := traced(ctx, "PrayerService", "Commit")
	defer func() { done(err) }()

	if len(in.Message) > maxCommentLen {
		return nil, models.NewValidationError("Message too long (max 10000 characters)")
	}
	if _, err := s.GetPrayer(ctx, in.PrayerID); err != nil {
		return nil, err
	}
	commit := &models.PrayerCommit{
		PrayerID: in.PrayerID,
		UserID:   in.UserID,
	}
	if msg := strings.TrimSpace(in.Message); msg != "" {
		commit.Message = &msg
	}
	if err := s.prayerRepo.Commit(ctx, commit); err != nil {
		return nil, err
	}
	s.rewards.Award(ctx, in.UserID, models.FruitFaithfulness, PrayerCommitFaithfulnessXP, fmt.Sprintf("prayer_commit:%d", commit.ID))
	return commit, nil
}

// DeleteCommit withdraws a commitment. The committer or an admin may do so.
func (s *PrayerService) DeleteCommit(ctx context.Context, in DeleteCommitInput) (err error) {
	ctx, done := traced(ctx, "PrayerService", "DeleteCommit")
	defer func() { done(err) }()

	commit, err := s.prayerRepo.GetCommit(ctx, in.CommitID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, commit.UserID, in.UserID, "You can only withdraw your own commitments"); err != nil {
		return err
	}
	return s.prayerRepo.DeleteCommit(ctx, in.CommitID)
}

func (s *PrayerService) ListCommits(ctx context.Context, prayerID uint) ([]*models.PrayerCommit, error) {
	if _, err := s.GetPrayer(ctx, prayerID); err != nil {
		return nil, err
	}
	return s.prayerRepo.ListCommits(ctx, prayerID)
}
