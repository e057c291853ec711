package repository

import (
	"context"
	"fmt"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// PrayerRepository defines persistence operations for prayer requests and
// the commitments made to them.
type PrayerRepository interface {
	Create(ctx context.Context, prayer *models.Prayer) error
	GetByID(ctx context.Context, id uint) (*models.Prayer, error)
	List(ctx context.Context, status models.PrayerStatus, limit, offset int) ([]*models.Prayer, error)
	UpdateStatus(ctx context.Context, id uint, status models.PrayerStatus) (*models.Prayer, error)
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	Commit(ctx context.Context, commit *models.PrayerCommit) error
	DeleteCommit(ctx context.Context, commitID uint) error
	GetCommit(ctx context.Context, commitID uint) (*models.PrayerCommit, error)
	ListCommits(ctx context.Context, prayerID uint) ([]*models.PrayerCommit, error)
	Recount(ctx context.Context, id uint) (*models.Prayer, error)
}

type prayerRepository struct {
	db     *gorm.DB
	engine *consistency.Engine
}

// NewPrayerRepository returns a new PrayerRepository implementation.
func NewPrayerRepository(db *gorm.DB, engine *consistency.Engine) PrayerRepository {
	return &prayerRepository{db: db, engine: engine}
}

// Create inserts the prayer as OPEN unless a status is given, with no commits.
func (r *prayerRepository) Create(ctx context.Context, prayer *models.Prayer) (err error) {
	ctx, done := track(ctx, "Create", "prayers")
	defer func() { done(err) }()

	if prayer.Status == "" {
		prayer.Status = models.PrayerStatusOpen
	}
	if !prayer.Status.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown prayer status %q", prayer.Status))
	}
	prayer.CommitCount = 0
	return translate(r.db.WithContext(ctx).Create(prayer).Error)
}

// GetByID finds a prayer in any soft-delete state.
func (r *prayerRepository) GetByID(ctx context.Context, id uint) (_ *models.Prayer, err error) {
	ctx, done := track(ctx, "GetByID", "prayers")
	defer func() { done(err) }()

	var prayer models.Prayer
	if err := readDB(r.db).WithContext(ctx).Unscoped().First(&prayer, id).Error; err != nil {
		return nil, notFound(err, models.KindPrayer, id)
	}
	return &prayer, nil
}

// List returns live prayers, newest first, optionally filtered by status.
func (r *prayerRepository) List(ctx context.Context, status models.PrayerStatus, limit, offset int) (_ []*models.Prayer, err error) {
	ctx, done := track(ctx, "List", "prayers")
	defer func() { done(err) }()

	limit, offset = page(limit, offset)
	q := readDB(r.db).WithContext(ctx).Model(&models.Prayer{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var prayers []*models.Prayer
	err = q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&prayers).Error
	return prayers, translate(err)
}

// UpdateStatus moves a prayer to any known status. Every transition is
// allowed, including back to OPEN.
func (r *prayerRepository) UpdateStatus(ctx context.Context, id uint, status models.PrayerStatus) (_ *models.Prayer, err error) {
	ctx, done := track(ctx, "UpdateStatus", "prayers")
	defer func() { done(err) }()

	if !status.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown prayer status %q", status))
	}
	res := r.db.WithContext(ctx).Unscoped().Model(&models.Prayer{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError(string(models.KindPrayer), id)
	}
	return r.GetByID(ctx, id)
}

func (r *prayerRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.engine.SoftDeleteOwner(ctx, models.KindPrayer, id)
}

func (r *prayerRepository) Restore(ctx context.Context, id uint) error {
	return r.engine.RestoreOwner(ctx, models.KindPrayer, id)
}

func (r *prayerRepository) Commit(ctx context.Context, commit *models.PrayerCommit) error {
	return r.engine.InsertPrayerCommit(ctx, commit)
}

func (r *prayerRepository) DeleteCommit(ctx context.Context, commitID uint) error {
	return r.engine.DeleteFact(ctx, models.FactPrayerCommit, commitID)
}

func (r *prayerRepository) GetCommit(ctx context.Context, commitID uint) (_ *models.PrayerCommit, err error) {
	ctx, done := track(ctx, "GetCommit", "prayer_commits")
	defer func() { done(err) }()

	var commit models.PrayerCommit
	if err := readDB(r.db).WithContext(ctx).First(&commit, commitID).Error; err != nil {
		return nil, notFound(err, models.KindPrayerCommit, commitID)
	}
	return &commit, nil
}

func (r *prayerRepository) ListCommits(ctx context.Context, prayerID uint) (_ []*models.PrayerCommit, err error) {
	ctx, done := track(ctx, "ListCommits", "prayer_commits")
	defer func() { done(err) }()

	var commits []*models.PrayerCommit
	err = readDB(r.db).WithContext(ctx).Where("prayer_id = ?", prayerID).Order("created_at asc").Order("id asc").Find(&commits).Error
	return commits, translate(err)
}

func (r *prayerRepository) Recount(ctx context.Context, id uint) (*models.Prayer, error) {
	return r.engine.RecountPrayer(ctx, id)
}
