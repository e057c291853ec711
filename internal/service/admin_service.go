package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"fellowship/internal/consistency"
	"fellowship/internal/featureflags"
	"fellowship/internal/models"
	"fellowship/internal/observability"
	"fellowship/internal/repository"
)

// OwnerDeleter removes an entity together with everything its delete
// policies reach.
type OwnerDeleter interface {
	DeleteOwner(ctx context.Context, kind models.EntityKind, id uint) error
	Policies() []consistency.Relation
}

// FlagStore persists feature flag values.
type FlagStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}

// AdminService groups the maintenance operations exposed to admins.
type AdminService struct {
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	prayerRepo repository.PrayerRepository
	xpRepo     repository.XpRepository
	deleter    OwnerDeleter
	flags      FlagStore
}

func NewAdminService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	prayerRepo repository.PrayerRepository,
	xpRepo repository.XpRepository,
	deleter OwnerDeleter,
	flags FlagStore,
) *AdminService {
	return &AdminService{
		userRepo:   userRepo,
		postRepo:   postRepo,
		prayerRepo: prayerRepo,
		xpRepo:     xpRepo,
		deleter:    deleter,
		flags:      flags,
	}
}

// DeleteOwner hard-deletes any entity and applies its delete policies.
func (s *AdminService) DeleteOwner(ctx context.Context, actorID uint, kind models.EntityKind, id uint) (err error) {
	ctx, done := traced(ctx, "AdminService", "DeleteOwner")
	defer func() { done(err) }()

	if err := s.deleter.DeleteOwner(ctx, kind, id); err != nil {
		return err
	}
	observability.LogAdminAction(ctx, "delete_owner", actorID, slog.String("kind", string(kind)), slog.Any("id", id))
	return nil
}

// Policies lists the delete policy table sorted by parent then child.
func (s *AdminService) Policies() []consistency.Relation {
	rels := s.deleter.Policies()
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Parent != rels[j].Parent {
			return rels[i].Parent < rels[j].Parent
		}
		return rels[i].Child < rels[j].Child
	})
	return rels
}

func (s *AdminService) SetAdmin(ctx context.Context, actorID, targetID uint, admin bool) (*models.User, error) {
	if actorID == targetID && !admin {
		return nil, models.NewValidationError("Admins cannot demote themselves")
	}
	if err := s.userRepo.SetAdmin(ctx, targetID, admin); err != nil {
		return nil, err
	}
	observability.LogAdminAction(ctx, "set_admin", actorID, slog.Any("target_id", targetID), slog.Bool("is_admin", admin))
	return s.userRepo.GetByID(ctx, targetID)
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

func (s *AdminService) RecomputeXp(ctx context.Context, actorID, userID uint) (*models.XpTotals, error) {
	totals, err := s.xpRepo.Recompute(ctx, userID)
	if err != nil {
		return nil, err
	}
	observability.LogAdminAction(ctx, "recompute_xp", actorID, slog.Any("user_id", userID))
	return totals, nil
}

func (s *AdminService) RecomputeAllXp(ctx context.Context, actorID uint) (int, error) {
	n, err := s.xpRepo.RecomputeAll(ctx)
	if err != nil {
		return 0, err
	}
	observability.LogAdminAction(ctx, "recompute_all_xp", actorID, slog.Int("users", n))
	return n, nil
}

func (s *AdminService) RecountPost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.Recount(ctx, postID)
	if err != nil {
		return nil, err
	}
	observability.LogAdminAction(ctx, "recount_post", actorID, slog.Any("post_id", postID))
	return post, nil
}

func (s *AdminService) RecountPrayer(ctx context.Context, actorID, prayerID uint) (*models.Prayer, error) {
	prayer, err := s.prayerRepo.Recount(ctx, prayerID)
	if err != nil {
		return nil, err
	}
	observability.LogAdminAction(ctx, "recount_prayer", actorID, slog.Any("prayer_id", prayerID))
	return prayer, nil
}

func (s *AdminService) ListFlags(ctx context.Context) (map[string]string, error) {
	return s.flags.List(ctx)
}

func (s *AdminService) GetFlag(ctx context.Context, key string) (string, error) {
	return s.flags.Get(ctx, key)
}

func (s *AdminService) SetFlag(ctx context.Context, actorID uint, key, value string) error {
	if !featureflags.ValidValue(value) {
		return models.NewValidationError(fmt.Sprintf("Invalid flag value %q (use on, off or N%%)", value))
	}
	if err := s.flags.Set(ctx, key, value); err != nil {
		return err
	}
	observability.LogAdminAction(ctx, "set_flag", actorID, slog.String("key", key), slog.String("value", value))
	return nil
}

func (s *AdminService) DeleteFlag(ctx context.Context, actorID uint, key string) error {
	if err := s.flags.Delete(ctx, key); err != nil {
		return err
	}
	observability.LogAdminAction(ctx, "delete_flag", actorID, slog.String("key", key))
	return nil
}
