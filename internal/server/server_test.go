package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"fellowship/internal/config"
	"fellowship/internal/middleware"
	"fellowship/internal/models"
	"fellowship/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret"

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := &config.Config{JWTSecret: testSecret, Env: "test", Port: "0"}
	middleware.InitMiddleware(cfg)

	db := testutil.NewSQLiteDB(t)
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testEnv{app: s.App(), db: db}
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request as userID (0 for anonymous) and decodes a JSON
// response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path string, userID uint, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) makeAdmin(t *testing.T, id uint) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", id).Update("is_admin", true).Error)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", 0, nil, &body))
	assert.Equal(t, "up", body["status"])

	body = nil
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", 0, nil, &body))
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestWritesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	var errBody models.ErrorResponse
	status := env.do(t, http.MethodPost, "/api/posts", 0, map[string]string{"title": "t", "content": "c"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, errBody.Code)
}

func TestInvalidID(t *testing.T) {
	env := newTestEnv(t)

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/posts/abc", 0, nil, &errBody))
	assert.Equal(t, "Invalid ID", errBody.Error)
}

func TestPostCommentReactionFlow(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db)
	reader := testutil.CreateUser(t, env.db)
	stranger := testutil.CreateUser(t, env.db)

	var post models.Post
	status := env.do(t, http.MethodPost, "/api/posts", author.ID,
		map[string]string{"title": "Morning", "content": "Grateful today"}, &post)
	require.Equal(t, http.StatusCreated, status)
	postPath := "/api/posts/" + strconv.Itoa(int(post.ID))

	var comment models.Comment
	status = env.do(t, http.MethodPost, postPath+"/comments", reader.ID,
		map[string]string{"content": "Amen to that"}, &comment)
	require.Equal(t, http.StatusCreated, status)

	var got models.Post
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, postPath, 0, nil, &got))
	assert.Equal(t, int64(1), got.CommentCount)

	commentPath := "/api/comments/" + strconv.Itoa(int(comment.ID))
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, commentPath, stranger.ID, nil, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, commentPath, reader.ID, nil, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, postPath, 0, nil, &got))
	assert.Zero(t, got.CommentCount)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, commentPath+"/restore", reader.ID, nil, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, postPath, 0, nil, &got))
	assert.Equal(t, int64(1), got.CommentCount)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, postPath+"/reactions", reader.ID,
		map[string]string{"type": "amen"}, &got))
	assert.Equal(t, int64(1), got.ReactionCount)

	var errBody models.ErrorResponse
	status = env.do(t, http.MethodPost, postPath+"/reactions", reader.ID, map[string]string{"type": "AMEN"}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, errBody.Code)

	var counts map[string]int64
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, postPath+"/reactions", 0, nil, &counts))
	assert.Equal(t, map[string]int64{"AMEN": 1}, counts)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, postPath+"/reactions/amen", reader.ID, nil, &got))
	assert.Zero(t, got.ReactionCount)
}

func TestSoftDeletedPostIsHiddenAndRestorable(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db)
	post := testutil.CreatePost(t, env.db, author.ID)
	postPath := "/api/posts/" + strconv.Itoa(int(post.ID))

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, postPath, author.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, postPath, 0, nil, nil))

	var list []models.Post
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/posts", 0, nil, &list))
	assert.Empty(t, list)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, postPath+"/restore", author.ID, nil, nil))
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, postPath, 0, nil, nil))
}

func TestAdminDeleteRestrictedUser(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db)
	member := testutil.CreateUser(t, env.db)
	testutil.CreatePost(t, env.db, member.ID)
	path := "/api/admin/entities/user/" + strconv.Itoa(int(member.ID))

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, member.ID, nil, nil))

	env.makeAdmin(t, admin.ID)
	var errBody models.ErrorResponse
	status := env.do(t, http.MethodDelete, path, admin.ID, nil, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeFKRestricted, errBody.Code)
	assert.Contains(t, errBody.Error, "removed first")
}

func TestAdminPolicies(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db)
	env.makeAdmin(t, admin.ID)

	var rels []map[string]string
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/admin/policies", admin.ID, nil, &rels))
	assert.NotEmpty(t, rels)
	assert.Contains(t, rels, map[string]string{
		"parent": "user",
		"child":  "post",
		"column": "user_id",
		"policy": "RESTRICT",
	})
}

func TestPrayerCommitEarnsXpWhenFlagOn(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db)
	env.makeAdmin(t, admin.ID)
	member := testutil.CreateUser(t, env.db)

	var prayer models.Prayer
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/prayers", member.ID,
		map[string]string{"title": "Healing for my mother"}, &prayer))
	prayerPath := "/api/prayers/" + strconv.Itoa(int(prayer.ID))

	// Rewards are off until the flag is stored.
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, prayerPath+"/commits", admin.ID, nil, nil))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/admin/feature-flags/xp_rewards", admin.ID,
		map[string]string{"value": "on"}, nil))

	var commit models.PrayerCommit
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, prayerPath+"/commits", member.ID,
		map[string]string{"message": "praying"}, &commit))

	var got models.Prayer
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, prayerPath, 0, nil, &got))
	assert.Equal(t, int64(2), got.CommitCount)

	var totals models.XpTotals
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/me/xp", member.ID, nil, &totals))
	assert.Equal(t, int64(5), totals.Faithfulness)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/me/xp", admin.ID, nil, &totals))
	assert.Zero(t, totals.Faithfulness)

	commitPath := "/api/prayer-commits/" + strconv.Itoa(int(commit.ID))
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, commitPath, member.ID, nil, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, prayerPath, 0, nil, &got))
	assert.Equal(t, int64(1), got.CommitCount)
}

func TestPrayerStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	member := testutil.CreateUser(t, env.db)
	prayer := testutil.CreatePrayer(t, env.db, member.ID)
	path := "/api/prayers/" + strconv.Itoa(int(prayer.ID)) + "/status"

	steps := []struct {
		in   string
		want models.PrayerStatus
	}{
		{"answered", models.PrayerStatusAnswered},
		{"ARCHIVED", models.PrayerStatusArchived},
		{"open", models.PrayerStatusOpen},
	}
	for _, step := range steps {
		var got models.Prayer
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, path, member.ID, map[string]string{"status": step.in}, &got))
		assert.Equal(t, step.want, got.Status)
	}

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, path, member.ID, map[string]string{"status": "LOST"}, nil))
}

func TestAdminRecordXpEvent(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db)
	env.makeAdmin(t, admin.ID)
	member := testutil.CreateUser(t, env.db)

	var errBody models.ErrorResponse
	status := env.do(t, http.MethodPost, "/api/admin/xp/events", admin.ID, map[string]interface{}{
		"user_id": member.ID, "fruit": "joy", "amount": -1, "reason": "oops",
	}, &errBody)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, models.CodeCheckViolation, errBody.Code)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/admin/xp/events", admin.ID, map[string]interface{}{
		"user_id": member.ID, "fruit": "Joy", "amount": 4, "reason": "welcome",
	}, nil))

	var totals models.XpTotals
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/users/"+strconv.Itoa(int(member.ID))+"/xp", 0, nil, &totals))
	assert.Equal(t, int64(4), totals.Joy)
}
