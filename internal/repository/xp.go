package repository

import (
	"context"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// XpRepository defines persistence operations for XP events and totals.
type XpRepository interface {
	Record(ctx context.Context, in consistency.XpEventInput) (*models.XpEvent, error)
	Totals(ctx context.Context, userID uint) (*models.XpTotals, error)
	ListEvents(ctx context.Context, userID uint, limit, offset int) ([]*models.XpEvent, error)
	Recompute(ctx context.Context, userID uint) (*models.XpTotals, error)
	RecomputeAll(ctx context.Context) (int, error)
}

type xpRepository struct {
	db     *gorm.DB
	engine *consistency.Engine
}

// NewXpRepository returns a new XpRepository implementation.
func NewXpRepository(db *gorm.DB, engine *consistency.Engine) XpRepository {
	return &xpRepository{db: db, engine: engine}
}

func (r *xpRepository) Record(ctx context.Context, in consistency.XpEventInput) (*models.XpEvent, error) {
	return r.engine.RecordXpEvent(ctx, in)
}

// Totals returns the user's totals. A user with no events yet gets an
// all-zero value that is not persisted.
func (r *xpRepository) Totals(ctx context.Context, userID uint) (_ *models.XpTotals, err error) {
	ctx, done := track(ctx, "Totals", "xp_totals")
	defer func() { done(err) }()

	db := readDB(r.db).WithContext(ctx)
	var n int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return nil, translate(err)
	}
	if n == 0 {
		return nil, models.NewNotFoundError(string(models.KindUser), userID)
	}

	var totals []models.XpTotals
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&totals).Error; err != nil {
		return nil, translate(err)
	}
	if len(totals) == 0 {
		return &models.XpTotals{UserID: userID}, nil
	}
	return &totals[0], nil
}

// ListEvents returns a user's events, newest first.
func (r *xpRepository) ListEvents(ctx context.Context, userID uint, limit, offset int) (_ []*models.XpEvent, err error) {
	ctx, done := track(ctx, "ListEvents", "xp_events")
	defer func() { done(err) }()

	limit, offset = page(limit, offset)
	var events []*models.XpEvent
	err = readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, translate(err)
}

func (r *xpRepository) Recompute(ctx context.Context, userID uint) (*models.XpTotals, error) {
	return r.engine.RecomputeXpTotals(ctx, userID)
}

func (r *xpRepository) RecomputeAll(ctx context.Context) (int, error) {
	return r.engine.RecomputeAllXpTotals(ctx)
}
