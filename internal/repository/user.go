package repository

import (
	"context"
	"errors"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	IsAdmin(ctx context.Context, id uint) (bool, error)
	SetAdmin(ctx context.Context, id uint, admin bool) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db     *gorm.DB
	engine *consistency.Engine
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB, engine *consistency.Engine) UserRepository {
	return &userRepository{db: db, engine: engine}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (_ *models.User, err error) {
	ctx, done := track(ctx, "GetByID", "users")
	defer func() { done(err) }()

	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, models.KindUser, id)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has the name.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (_ *models.User, err error) {
	ctx, done := track(ctx, "GetByUsername", "users")
	defer func() { done(err) }()

	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := track(ctx, "Create", "users")
	defer func() { done(err) }()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		err = translate(err)
		if errors.Is(err, models.ErrUniqueViolation) {
			return models.NewUniqueViolationError("user", err)
		}
		return err
	}
	return nil
}

// IsAdmin reads the admin flag from the primary so a fresh promotion takes
// effect immediately.
func (r *userRepository) IsAdmin(ctx context.Context, id uint) (_ bool, err error) {
	ctx, done := track(ctx, "IsAdmin", "users")
	defer func() { done(err) }()

	var flags []bool
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Limit(1).Pluck("is_admin", &flags).Error; err != nil {
		return false, translate(err)
	}
	if len(flags) == 0 {
		return false, models.NewNotFoundError(string(models.KindUser), id)
	}
	return flags[0], nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) (err error) {
	ctx, done := track(ctx, "SetAdmin", "users")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", admin)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(string(models.KindUser), id)
	}
	return nil
}

func (r *userRepository) ListAdmins(ctx context.Context) (_ []models.User, err error) {
	ctx, done := track(ctx, "ListAdmins", "users")
	defer func() { done(err) }()

	var users []models.User
	err = readDB(r.db).WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&users).Error
	return users, translate(err)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) (_ []models.User, err error) {
	ctx, done := track(ctx, "List", "users")
	defer func() { done(err) }()

	limit, offset = page(limit, offset)
	var users []models.User
	err = readDB(r.db).WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&users).Error
	return users, translate(err)
}

// Delete removes the user and everything the policy table cascades from it.
// A user who still authors posts or created groups cannot be deleted.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.engine.DeleteOwner(ctx, models.KindUser, id)
}
