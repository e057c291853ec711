package consistency

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"fellowship/internal/models"
	"fellowship/internal/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	plain := errors.New("connection reset")
	already := models.NewValidationError("bad input")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, models.ErrNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), models.ErrNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, models.ErrUniqueViolation},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, models.ErrForeignKeyRestriction},
		{"gorm check", gorm.ErrCheckConstraintViolated, models.ErrCheckViolation},
		{"pg unique", &pgconn.PgError{Code: "23505"}, models.ErrUniqueViolation},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, models.ErrForeignKeyRestriction},
		{"pg check", &pgconn.PgError{Code: "23514"}, models.ErrCheckViolation},
		{"sqlite unique", errors.New("UNIQUE constraint failed: reactions.post_id"), models.ErrUniqueViolation},
		{"sqlite check", errors.New("CHECK constraint failed: chk_xp_events_amount"), models.ErrCheckViolation},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), models.ErrForeignKeyRestriction},
		{"app error passes through", already, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, TranslateError(tt.err), tt.want)
		})
	}

	assert.NoError(t, TranslateError(nil))
	assert.Same(t, plain, TranslateError(plain))
	assert.Same(t, already, TranslateError(already))

	pgOther := &pgconn.PgError{Code: "40001"}
	assert.Same(t, pgOther, TranslateError(pgOther))
}

func TestTranslateError_KeepsCause(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_reactions_post_user_type"}
	err := TranslateError(pgErr)

	var target *pgconn.PgError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "idx_reactions_post_user_type", target.ConstraintName)
	assert.Equal(t, 409, models.StatusFor(err))
}

func TestEventTimeRange_CheckViolation(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	creator := testutil.CreateUser(t, db)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ends time.Time
		want error
	}{
		{"ends before start", start.Add(-time.Hour), models.ErrCheckViolation},
		{"zero length", start, models.ErrCheckViolation},
		{"ends after start", start.Add(2 * time.Hour), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateError(db.Create(&models.Event{
				CreatorID: creator.ID,
				Title:     "evening prayer",
				StartsAt:  start,
				EndsAt:    tt.ends,
			}).Error)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
