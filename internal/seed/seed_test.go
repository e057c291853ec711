package seed

import (
	"context"
	"testing"

	"fellowship/internal/consistency"
	"fellowship/internal/models"
	"fellowship/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallOptions() Options {
	return Options{
		Users:            4,
		PostsPerUser:     2,
		CommentsPerPost:  3,
		ReactionsPerPost: 6,
		PrayersPerUser:   1,
		CommitsPerPrayer: 2,
		XpEventsPerUser:  2,
		SkipBcrypt:       true,
		RandSeed:         42,
	}
}

func TestSeed_CountersMatchFacts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	engine := consistency.NewEngine(db)
	ctx := context.Background()

	report, err := Seed(ctx, db, engine, smallOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Users)
	assert.Equal(t, 8, report.Posts)
	assert.Equal(t, 24, report.Comments)
	// Reactions are capped at one per user per post.
	assert.Equal(t, 32, report.Reactions)
	assert.Equal(t, 8, report.Commits)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 8)
	for _, p := range posts {
		var comments, reactions int64
		require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
		require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ?", p.ID).Count(&reactions).Error)
		assert.Equal(t, comments, p.CommentCount, "post %d comment_count", p.ID)
		assert.Equal(t, reactions, p.ReactionCount, "post %d reaction_count", p.ID)
	}

	var prayers []models.Prayer
	require.NoError(t, db.Find(&prayers).Error)
	for _, p := range prayers {
		assert.Equal(t, int64(2), p.CommitCount)
	}

	var events int64
	require.NoError(t, db.Model(&models.XpEvent{}).Count(&events).Error)
	assert.Equal(t, int64(report.XpEvents), events)

	n, err := engine.RecomputeAllXpTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSeed_Clean(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	engine := consistency.NewEngine(db)
	ctx := context.Background()

	_, err := Seed(ctx, db, engine, smallOptions())
	require.NoError(t, err)

	opts := smallOptions()
	opts.Users = 1
	opts.Clean = true
	_, err = Seed(ctx, db, engine, opts)
	require.NoError(t, err)

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Unscoped().Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(2), posts)
}

func TestSeed_RequiresUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := Seed(context.Background(), db, consistency.NewEngine(db), Options{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFactory_UniqueUsernames(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f, err := NewFactory(db, consistency.NewEngine(db), 7, true)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		u, err := f.CreateUser(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[u.Username], "duplicate username %s", u.Username)
		seen[u.Username] = true
		assert.LessOrEqual(t, len(u.Username), 50)
	}
}

func TestFactory_Pick(t *testing.T) {
	users := []*models.User{{ID: 1}, {ID: 2}, {ID: 3}}

	db := testutil.NewSQLiteDB(t)
	factory, err := NewFactory(db, consistency.NewEngine(db), 1, true)
	require.NoError(t, err)

	got := factory.pick(users, 10)
	assert.Len(t, got, 3)
	ids := map[uint]bool{}
	for _, u := range got {
		ids[u.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Len(t, factory.pick(users, 2), 2)
}
