package consistency

import (
	"context"
	"errors"
	"testing"

	"fellowship/internal/models"
	"fellowship/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return NewEngine(db, opts...), db
}

func TestTransaction_RollsBackCounterWithFact(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	boom := errors.New("boom")
	err := e.Transaction(ctx, func(tx *Tx) error {
		if err := tx.InsertComment(&models.Comment{PostID: post.ID, UserID: author.ID, Content: "hi"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, testutil.ReloadPost(t, db, post.ID).CommentCount)
}

func TestBind_UsesCallerTransaction(t *testing.T) {
	e, db := newTestEngine(t)
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	err := db.Transaction(func(tx *gorm.DB) error {
		return e.Bind(tx).InsertReaction(&models.Reaction{PostID: post.ID, UserID: author.ID, Type: models.ReactionAmen})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).ReactionCount)
}

func TestInsertFact_Dispatch(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)
	prayer := testutil.CreatePrayer(t, db, author.ID)

	id, err := e.InsertFact(ctx, models.FactComment, &models.Comment{PostID: post.ID, UserID: author.ID, Content: "c"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	id, err = e.InsertFact(ctx, models.FactPrayerCommit, &models.PrayerCommit{PrayerID: prayer.ID, UserID: author.ID})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, int64(1), testutil.ReloadPrayer(t, db, prayer.ID).CommitCount)

	_, err = e.InsertFact(ctx, models.FactReaction, &models.Comment{PostID: post.ID})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = e.InsertFact(ctx, models.FactKind("vote"), &models.Comment{})
	assert.ErrorIs(t, err, models.ErrValidation)
}
