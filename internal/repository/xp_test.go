package repository

import (
	"context"
	"testing"

	"fellowship/internal/consistency"
	"fellowship/internal/models"
	"fellowship/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXpRepository_RecordAndTotals(t *testing.T) {
	db, engine := setupSQLite(t)
	repo := NewXpRepository(db, engine)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	totals, err := repo.Totals(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.Sum())

	_, err = repo.Record(ctx, consistency.XpEventInput{UserID: u.ID, Fruit: models.FruitJoy, Amount: 3, Reason: "welcome"})
	require.NoError(t, err)
	_, err = repo.Record(ctx, consistency.XpEventInput{UserID: u.ID, Fruit: models.FruitJoy, Amount: 2, Reason: "again"})
	require.NoError(t, err)
	_, err = repo.Record(ctx, consistency.XpEventInput{UserID: u.ID, Fruit: models.FruitPeace, Amount: 1, Reason: "calm"})
	require.NoError(t, err)

	totals, err = repo.Totals(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), totals.Joy)
	assert.Equal(t, int64(1), totals.Peace)
	assert.Equal(t, int64(6), totals.Sum())

	events, err := repo.ListEvents(ctx, u.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "calm", events[0].Reason)

	_, err = repo.Totals(ctx, 4040)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestXpRepository_Recompute(t *testing.T) {
	db, engine := setupSQLite(t)
	repo := NewXpRepository(db, engine)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)
	other := testutil.CreateUser(t, db)

	_, err := repo.Record(ctx, consistency.XpEventInput{UserID: u.ID, Fruit: models.FruitLove, Amount: 4, Reason: "r"})
	require.NoError(t, err)
	_, err = repo.Record(ctx, consistency.XpEventInput{UserID: other.ID, Fruit: models.FruitLove, Amount: 1, Reason: "r"})
	require.NoError(t, err)
	require.NoError(t, db.Table("xp_totals").Where("user_id = ?", u.ID).Update("love", 99).Error)

	fixed, err := repo.Recompute(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), fixed.Love)

	n, err := repo.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
