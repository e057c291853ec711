// Package testutil provides shared database fixtures for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"fellowship/internal/database"
	"fellowship/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Uint64

// NewSQLiteDB opens a file-backed SQLite database under t.TempDir() with
// every persistent model migrated. The pool holds a single connection so
// concurrent transactions serialize the way row locks would on Postgres.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fellowship.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func next() uint64 {
	return seq.Add(1)
}

// CreateUser inserts a member with a unique username.
func CreateUser(t testing.TB, db *gorm.DB) *models.User {
	t.Helper()
	n := next()
	u := &models.User{
		Username: fmt.Sprintf("member%d", n),
		Email:    fmt.Sprintf("member%d@example.com", n),
		Password: "x",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePost inserts a post by userID with zeroed counters.
func CreatePost(t testing.TB, db *gorm.DB, userID uint) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:   fmt.Sprintf("post %d", next()),
		Content: "content",
		UserID:  userID,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// CreatePrayer inserts an open prayer by userID.
func CreatePrayer(t testing.TB, db *gorm.DB, userID uint) *models.Prayer {
	t.Helper()
	p := &models.Prayer{
		Title:  fmt.Sprintf("prayer %d", next()),
		UserID: userID,
		Status: models.PrayerStatusOpen,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create prayer: %v", err)
	}
	return p
}

// CreateGroup inserts a group created by creatorID.
func CreateGroup(t testing.TB, db *gorm.DB, creatorID uint) *models.Group {
	t.Helper()
	n := next()
	g := &models.Group{
		Name:      fmt.Sprintf("group %d", n),
		Slug:      fmt.Sprintf("group-%d", n),
		CreatorID: creatorID,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g
}

// ReloadPost reads a post's current counters, including soft-deleted posts.
func ReloadPost(t testing.TB, db *gorm.DB, id uint) *models.Post {
	t.Helper()
	var p models.Post
	if err := db.Unscoped().First(&p, id).Error; err != nil {
		t.Fatalf("reload post %d: %v", id, err)
	}
	return &p
}

// ReloadPrayer reads a prayer's current counter, including soft-deleted prayers.
func ReloadPrayer(t testing.TB, db *gorm.DB, id uint) *models.Prayer {
	t.Helper()
	var p models.Prayer
	if err := db.Unscoped().First(&p, id).Error; err != nil {
		t.Fatalf("reload prayer %d: %v", id, err)
	}
	return &p
}
