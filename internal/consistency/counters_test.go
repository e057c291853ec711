package consistency

import (
	"context"
	"sync"
	"testing"

	"fellowship/internal/models"
	"fellowship/internal/observability"
	"fellowship/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertComment_IncrementsPost(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	for i := 0; i < 2; i++ {
		require.NoError(t, e.InsertComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Content: "amen"}))
	}
	assert.Equal(t, int64(2), testutil.ReloadPost(t, db, post.ID).CommentCount)
}

func TestInsertComment_AlreadyDeletedIsNotCounted(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	c := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "gone"}
	require.NoError(t, c.DeletedAt.Scan(e.now()))
	require.NoError(t, e.InsertComment(ctx, c))

	assert.Zero(t, testutil.ReloadPost(t, db, post.ID).CommentCount)

	require.NoError(t, e.RestoreFact(ctx, models.FactComment, c.ID))
	assert.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).CommentCount)
}

func TestInsertComment_MissingPost(t *testing.T) {
	e, db := newTestEngine(t)
	author := testutil.CreateUser(t, db)

	err := e.InsertComment(context.Background(), &models.Comment{PostID: 9999, UserID: author.ID, Content: "x"})
	require.ErrorIs(t, err, models.ErrNotFound)

	var n int64
	require.NoError(t, db.Unscoped().Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n, "the orphan insert must roll back")
}

func TestInsertReaction_DuplicateRejected(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	require.NoError(t, e.InsertReaction(ctx, &models.Reaction{PostID: post.ID, UserID: author.ID, Type: models.ReactionLike}))
	err := e.InsertReaction(ctx, &models.Reaction{PostID: post.ID, UserID: author.ID, Type: models.ReactionLike})
	require.ErrorIs(t, err, models.ErrUniqueViolation)

	// A different type from the same user is its own fact.
	require.NoError(t, e.InsertReaction(ctx, &models.Reaction{PostID: post.ID, UserID: author.ID, Type: models.ReactionPrayer}))
	assert.Equal(t, int64(2), testutil.ReloadPost(t, db, post.ID).ReactionCount)
}

func TestInsertReaction_UnknownType(t *testing.T) {
	e, db := newTestEngine(t)
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	err := e.InsertReaction(context.Background(), &models.Reaction{PostID: post.ID, UserID: author.ID, Type: "WOW"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestInsertPrayerCommit_MissingPrayer(t *testing.T) {
	e, db := newTestEngine(t)
	author := testutil.CreateUser(t, db)

	err := e.InsertPrayerCommit(context.Background(), &models.PrayerCommit{PrayerID: 4242, UserID: author.ID})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSoftDeleteRestore_RoundTrip(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	first := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "one"}
	require.NoError(t, e.InsertComment(ctx, first))
	require.NoError(t, e.InsertComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Content: "two"}))
	assert.Equal(t, int64(2), testutil.ReloadPost(t, db, post.ID).CommentCount)

	require.NoError(t, e.SoftDeleteFact(ctx, models.FactComment, first.ID))
	assert.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).CommentCount)

	// A second soft delete is a no-op.
	require.NoError(t, e.SoftDeleteFact(ctx, models.FactComment, first.ID))
	assert.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).CommentCount)

	require.NoError(t, e.RestoreFact(ctx, models.FactComment, first.ID))
	assert.Equal(t, int64(2), testutil.ReloadPost(t, db, post.ID).CommentCount)

	// Restoring a live comment is a no-op.
	require.NoError(t, e.RestoreFact(ctx, models.FactComment, first.ID))
	assert.Equal(t, int64(2), testutil.ReloadPost(t, db, post.ID).CommentCount)
}

func TestSoftDeleteFact_HardDeleteOnlyKinds(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.SoftDeleteFact(context.Background(), models.FactReaction, 1)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = e.RestoreFact(context.Background(), models.FactPrayerCommit, 1)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSoftDeleteFact_Missing(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.SoftDeleteFact(context.Background(), models.FactComment, 77)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteFact(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	live := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "live"}
	dead := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "dead"}
	require.NoError(t, e.InsertComment(ctx, live))
	require.NoError(t, e.InsertComment(ctx, dead))
	require.NoError(t, e.SoftDeleteFact(ctx, models.FactComment, dead.ID))
	require.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).CommentCount)

	// Purging a soft-deleted comment leaves the counter alone.
	require.NoError(t, e.DeleteFact(ctx, models.FactComment, dead.ID))
	assert.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).CommentCount)

	require.NoError(t, e.DeleteFact(ctx, models.FactComment, live.ID))
	assert.Zero(t, testutil.ReloadPost(t, db, post.ID).CommentCount)

	err := e.DeleteFact(ctx, models.FactComment, live.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	r := &models.Reaction{PostID: post.ID, UserID: author.ID, Type: models.ReactionAmen}
	require.NoError(t, e.InsertReaction(ctx, r))
	require.NoError(t, e.DeleteFact(ctx, models.FactReaction, r.ID))
	assert.Zero(t, testutil.ReloadPost(t, db, post.ID).ReactionCount)
}

func TestDecrement_ClampsAtZero(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	c := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "x"}
	require.NoError(t, e.InsertComment(ctx, c))

	// Drift the counter below the number of live comments.
	require.NoError(t, db.Exec("UPDATE posts SET comment_count = 0 WHERE id = ?", post.ID).Error)

	clamps := observability.CounterClamps.WithLabelValues(postComments.name)
	before := promtest.ToFloat64(clamps)

	require.NoError(t, e.SoftDeleteFact(ctx, models.FactComment, c.ID))
	assert.Zero(t, testutil.ReloadPost(t, db, post.ID).CommentCount)
	assert.Equal(t, before+1, promtest.ToFloat64(clamps))
}

func TestDecrement_MissingParentIsNoop(t *testing.T) {
	e, db := newTestEngine(t)
	err := e.Transaction(context.Background(), func(tx *Tx) error {
		return tx.decrement(postComments, 31337, 1)
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Unscoped().Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestConcurrentComments(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.InsertComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Content: "together"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(writers), testutil.ReloadPost(t, db, post.ID).CommentCount)
}

func TestConcurrentIdenticalReactions(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	reader := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	const writers = 3
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.InsertReaction(ctx, &models.Reaction{PostID: post.ID, UserID: reader.ID, Type: models.ReactionAmen})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, models.ErrUniqueViolation):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)
	assert.Equal(t, int64(1), testutil.ReloadPost(t, db, post.ID).ReactionCount)
}

func TestRecountPost(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	require.NoError(t, e.InsertComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Content: "a"}))
	dead := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "b"}
	require.NoError(t, e.InsertComment(ctx, dead))
	require.NoError(t, e.SoftDeleteFact(ctx, models.FactComment, dead.ID))
	require.NoError(t, e.InsertReaction(ctx, &models.Reaction{PostID: post.ID, UserID: author.ID, Type: models.ReactionLike}))

	require.NoError(t, db.Exec("UPDATE posts SET comment_count = 40, reaction_count = 7 WHERE id = ?", post.ID).Error)

	got, err := e.RecountPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentCount)
	assert.Equal(t, int64(1), got.ReactionCount)

	_, err = e.RecountPost(ctx, 5555)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecountPrayer(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	prayer := testutil.CreatePrayer(t, db, author.ID)

	require.NoError(t, e.InsertPrayerCommit(ctx, &models.PrayerCommit{PrayerID: prayer.ID, UserID: author.ID}))
	require.NoError(t, db.Exec("UPDATE prayers SET commit_count = 0 WHERE id = ?", prayer.ID).Error)

	got, err := e.RecountPrayer(ctx, prayer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommitCount)
}

func TestCounterColumnsIgnoredByModelUpdates(t *testing.T) {
	_, db := newTestEngine(t)
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	require.NoError(t, db.Model(&models.Post{ID: post.ID}).Updates(map[string]interface{}{
		"title":         "edited",
		"comment_count": 99,
	}).Error)
	require.NoError(t, db.Save(&models.Post{
		ID:            post.ID,
		Title:         "saved",
		Content:       post.Content,
		UserID:        author.ID,
		CommentCount:  12,
		ReactionCount: 12,
		CreatedAt:     post.CreatedAt,
	}).Error)

	got := testutil.ReloadPost(t, db, post.ID)
	assert.Equal(t, "saved", got.Title)
	assert.Zero(t, got.CommentCount)
	assert.Zero(t, got.ReactionCount)
}

func TestFactOperations_UnknownKind(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.DeleteFact(ctx, models.FactKind("like"), 1), models.ErrValidation)
	assert.ErrorIs(t, e.SoftDeleteFact(ctx, models.FactKind("like"), 1), models.ErrValidation)
	_, err := e.InsertFact(ctx, models.FactKind("like"), &models.Reaction{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSoftDeleteScopes(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID)

	for _, content := range []string{"a", "b", "c"} {
		require.NoError(t, e.InsertComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Content: content}))
	}
	var first models.Comment
	require.NoError(t, db.Where("post_id = ?", post.ID).Order("id").First(&first).Error)
	require.NoError(t, e.SoftDeleteFact(ctx, models.FactComment, first.ID))

	var live, deleted int64
	require.NoError(t, db.Table("comments").Where("post_id = ?", post.ID).Scopes(Live).Count(&live).Error)
	require.NoError(t, db.Table("comments").Where("post_id = ?", post.ID).Scopes(Deleted).Count(&deleted).Error)
	assert.Equal(t, int64(2), live)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, live, testutil.ReloadPost(t, db, post.ID).CommentCount)
}
