package service

import (
	"context"
	"strings"
	"testing"

	"fellowship/internal/featureflags"
	"fellowship/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPrayerService_CreatePrayer(t *testing.T) {
	t.Parallel()

	var created *models.Prayer
	prayerRepo := noopPrayerRepo()
	prayerRepo.createFn = func(_ context.Context, p *models.Prayer) error {
		p.ID = 8
		created = p
		return nil
	}
	svc := NewPrayerService(prayerRepo, nil, nil)
	ctx := context.Background()

	_, err := svc.CreatePrayer(ctx, CreatePrayerInput{UserID: 1})
	assertValidationError(t, err)
	_, err = svc.CreatePrayer(ctx, CreatePrayerInput{UserID: 1, Title: strings.Repeat("p", 201)})
	assertValidationError(t, err)

	postID := uint(4)
	_, err = svc.CreatePrayer(ctx, CreatePrayerInput{UserID: 1, Title: "healing", LinkedPostID: &postID})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.PrayerStatusOpen, created.Status)
	assert.Equal(t, &postID, created.LinkedPostID)
}

func TestPrayerService_UpdateStatus(t *testing.T) {
	t.Parallel()

	prayerRepo := noopPrayerRepo()
	prayerRepo.getByIDFn = func(_ context.Context, id uint) (*models.Prayer, error) {
		return &models.Prayer{ID: id, UserID: 10, Status: models.PrayerStatusArchived}, nil
	}
	svc := NewPrayerService(prayerRepo, adminIs(1), nil)
	ctx := context.Background()

	got, err := svc.UpdateStatus(ctx, UpdatePrayerStatusInput{UserID: 10, PrayerID: 2, Status: models.PrayerStatusOpen})
	require.NoError(t, err)
	assert.Equal(t, models.PrayerStatusOpen, got.Status)

	got, err = svc.UpdateStatus(ctx, UpdatePrayerStatusInput{UserID: 1, PrayerID: 2, Status: models.PrayerStatusAnswered})
	require.NoError(t, err)
	assert.Equal(t, models.PrayerStatusAnswered, got.Status)

	_, err = svc.UpdateStatus(ctx, UpdatePrayerStatusInput{UserID: 3, PrayerID: 2, Status: models.PrayerStatusAnswered})
	assertForbiddenError(t, err)
}

func TestPrayerService_ListPrayers_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := NewPrayerService(noopPrayerRepo(), nil, nil)
	_, err := svc.ListPrayers(context.Background(), "LOST", 0, 0)
	assertValidationError(t, err)

	_, err = svc.ListPrayers(context.Background(), "", 0, 0)
	assert.NoError(t, err)
}

func TestPrayerService_Commit(t *testing.T) {
	t.Parallel()

	var stored *models.PrayerCommit
	prayerRepo := noopPrayerRepo()
	prayerRepo.commitFn = func(_ context.Context, c *models.PrayerCommit) error {
		c.ID = 30
		stored = c
		return nil
	}
	xp := &xpRecorderStub{}
	svc := NewPrayerService(prayerRepo, nil, NewRewarder(xp, nil, featureflags.NewManager("xp_rewards=on")))

	commit, err := svc.Commit(context.Background(), CommitPrayerInput{UserID: 5, PrayerID: 2, Message: "  with you  "})
	require.NoError(t, err)
	assert.Equal(t, uint(30), commit.ID)
	require.NotNil(t, stored.Message)
	assert.Equal(t, "with you", *stored.Message)

	require.Len(t, xp.events, 1)
	assert.Equal(t, uint(5), xp.events[0].UserID)
	assert.Equal(t, models.FruitFaithfulness, xp.events[0].Fruit)
	assert.Equal(t, PrayerCommitFaithfulnessXP, xp.events[0].Amount)
	assert.Equal(t, "prayer_commit:30", xp.events[0].Reason)
}

func TestPrayerService_Commit_DeletedPrayer(t *testing.T) {
	t.Parallel()

	committed := false
	prayerRepo := noopPrayerRepo()
	prayerRepo.getByIDFn = func(_ context.Context, id uint) (*models.Prayer, error) {
		return &models.Prayer{ID: id, DeletedAt: gorm.DeletedAt{Valid: true}}, nil
	}
	prayerRepo.commitFn = func(_ context.Context, _ *models.PrayerCommit) error {
		committed = true
		return nil
	}
	svc := NewPrayerService(prayerRepo, nil, nil)

	_, err := svc.Commit(context.Background(), CommitPrayerInput{UserID: 5, PrayerID: 2})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, committed)
}

func TestPrayerService_DeleteCommit(t *testing.T) {
	t.Parallel()

	var deleted uint
	prayerRepo := noopPrayerRepo()
	prayerRepo.getCommitFn = func(_ context.Context, id uint) (*models.PrayerCommit, error) {
		return &models.PrayerCommit{ID: id, UserID: 5}, nil
	}
	prayerRepo.deleteCommitFn = func(_ context.Context, id uint) error {
		deleted = id
		return nil
	}
	svc := NewPrayerService(prayerRepo, adminIs(1), nil)
	ctx := context.Background()

	assertForbiddenError(t, svc.DeleteCommit(ctx, DeleteCommitInput{UserID: 6, CommitID: 3}))
	assert.Zero(t, deleted)

	require.NoError(t, svc.DeleteCommit(ctx, DeleteCommitInput{UserID: 5, CommitID: 3}))
	assert.Equal(t, uint(3), deleted)
}
