package service

import (
	"context"
	"errors"
	"testing"

	"fellowship/internal/consistency"
	"fellowship/internal/featureflags"
	"fellowship/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint) (*models.Post, error)
	listFn        func(context.Context, int, int) ([]*models.Post, error)
	listByUserFn  func(context.Context, uint, int, int) ([]*models.Post, error)
	listByGroupFn func(context.Context, uint, int, int) ([]*models.Post, error)
	updateFn      func(context.Context, uint, string, string) (*models.Post, error)
	softDeleteFn  func(context.Context, uint) error
	restoreFn     func(context.Context, uint) error
	deleteFn      func(context.Context, uint) error
	recountFn     func(context.Context, uint) (*models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByGroupFn(ctx, groupID, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, id uint, title, content string) (*models.Post, error) {
	return s.updateFn(ctx, id, title, content)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *postRepoStub) Restore(ctx context.Context, id uint) error {
	return s.restoreFn(ctx, id)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Recount(ctx context.Context, id uint) (*models.Post, error) {
	return s.recountFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:        func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByUserFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByGroupFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn: func(_ context.Context, id uint, title, content string) (*models.Post, error) {
			return &models.Post{ID: id, Title: title, Content: content}, nil
		},
		softDeleteFn: func(_ context.Context, _ uint) error { return nil },
		restoreFn:    func(_ context.Context, _ uint) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		recountFn:    func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
	}
}

// reactionRepoStub is a stub for repository.ReactionRepository.
type reactionRepoStub struct {
	addFn          func(context.Context, *models.Reaction) error
	removeFn       func(context.Context, uint, uint, models.ReactionType) error
	listByPostFn   func(context.Context, uint) ([]*models.Reaction, error)
	countsByTypeFn func(context.Context, uint) (map[models.ReactionType]int64, error)
}

func (s *reactionRepoStub) Add(ctx context.Context, r *models.Reaction) error {
	return s.addFn(ctx, r)
}
func (s *reactionRepoStub) Remove(ctx context.Context, postID, userID uint, t models.ReactionType) error {
	return s.removeFn(ctx, postID, userID, t)
}
func (s *reactionRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Reaction, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *reactionRepoStub) CountsByType(ctx context.Context, postID uint) (map[models.ReactionType]int64, error) {
	return s.countsByTypeFn(ctx, postID)
}

func noopReactionRepo() *reactionRepoStub {
	return &reactionRepoStub{
		addFn:        func(_ context.Context, _ *models.Reaction) error { return nil },
		removeFn:     func(_ context.Context, _, _ uint, _ models.ReactionType) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Reaction, error) { return nil, nil },
		countsByTypeFn: func(_ context.Context, _ uint) (map[models.ReactionType]int64, error) {
			return map[models.ReactionType]int64{}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	updateFn     func(context.Context, uint, string) (*models.Comment, error)
	softDeleteFn func(context.Context, uint) error
	restoreFn    func(context.Context, uint) error
	purgeFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, id uint, content string) (*models.Comment, error) {
	return s.updateFn(ctx, id, content)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *commentRepoStub) Restore(ctx context.Context, id uint) error {
	return s.restoreFn(ctx, id)
}
func (s *commentRepoStub) Purge(ctx context.Context, id uint) error {
	return s.purgeFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		updateFn: func(_ context.Context, id uint, content string) (*models.Comment, error) {
			return &models.Comment{ID: id, Content: content}, nil
		},
		softDeleteFn: func(_ context.Context, _ uint) error { return nil },
		restoreFn:    func(_ context.Context, _ uint) error { return nil },
		purgeFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// prayerRepoStub is a stub for repository.PrayerRepository.
type prayerRepoStub struct {
	createFn       func(context.Context, *models.Prayer) error
	getByIDFn      func(context.Context, uint) (*models.Prayer, error)
	listFn         func(context.Context, models.PrayerStatus, int, int) ([]*models.Prayer, error)
	updateStatusFn func(context.Context, uint, models.PrayerStatus) (*models.Prayer, error)
	softDeleteFn   func(context.Context, uint) error
	restoreFn      func(context.Context, uint) error
	commitFn       func(context.Context, *models.PrayerCommit) error
	deleteCommitFn func(context.Context, uint) error
	getCommitFn    func(context.Context, uint) (*models.PrayerCommit, error)
	listCommitsFn  func(context.Context, uint) ([]*models.PrayerCommit, error)
	recountFn      func(context.Context, uint) (*models.Prayer, error)
}

func (s *prayerRepoStub) Create(ctx context.Context, p *models.Prayer) error {
	return s.createFn(ctx, p)
}
func (s *prayerRepoStub) GetByID(ctx context.Context, id uint) (*models.Prayer, error) {
	return s.getByIDFn(ctx, id)
}
func (s *prayerRepoStub) List(ctx context.Context, status models.PrayerStatus, limit, offset int) ([]*models.Prayer, error) {
	return s.listFn(ctx, status, limit, offset)
}
func (s *prayerRepoStub) UpdateStatus(ctx context.Context, id uint, status models.PrayerStatus) (*models.Prayer, error) {
	return s.updateStatusFn(ctx, id, status)
}
func (s *prayerRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *prayerRepoStub) Restore(ctx context.Context, id uint) error {
	return s.restoreFn(ctx, id)
}
func (s *prayerRepoStub) Commit(ctx context.Context, c *models.PrayerCommit) error {
	return s.commitFn(ctx, c)
}
func (s *prayerRepoStub) DeleteCommit(ctx context.Context, id uint) error {
	return s.deleteCommitFn(ctx, id)
}
func (s *prayerRepoStub) GetCommit(ctx context.Context, id uint) (*models.PrayerCommit, error) {
	return s.getCommitFn(ctx, id)
}
func (s *prayerRepoStub) ListCommits(ctx context.Context, prayerID uint) ([]*models.PrayerCommit, error) {
	return s.listCommitsFn(ctx, prayerID)
}
func (s *prayerRepoStub) Recount(ctx context.Context, id uint) (*models.Prayer, error) {
	return s.recountFn(ctx, id)
}

func noopPrayerRepo() *prayerRepoStub {
	return &prayerRepoStub{
		createFn:  func(_ context.Context, _ *models.Prayer) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Prayer, error) { return &models.Prayer{ID: id}, nil },
		listFn: func(_ context.Context, _ models.PrayerStatus, _, _ int) ([]*models.Prayer, error) {
			return nil, nil
		},
		updateStatusFn: func(_ context.Context, id uint, status models.PrayerStatus) (*models.Prayer, error) {
			return &models.Prayer{ID: id, Status: status}, nil
		},
		softDeleteFn:   func(_ context.Context, _ uint) error { return nil },
		restoreFn:      func(_ context.Context, _ uint) error { return nil },
		commitFn:       func(_ context.Context, _ *models.PrayerCommit) error { return nil },
		deleteCommitFn: func(_ context.Context, _ uint) error { return nil },
		getCommitFn: func(_ context.Context, id uint) (*models.PrayerCommit, error) {
			return &models.PrayerCommit{ID: id}, nil
		},
		listCommitsFn: func(_ context.Context, _ uint) ([]*models.PrayerCommit, error) { return nil, nil },
		recountFn:     func(_ context.Context, id uint) (*models.Prayer, error) { return &models.Prayer{ID: id}, nil },
	}
}

// xpRecorderStub captures recorded events.
type xpRecorderStub struct {
	events []consistency.XpEventInput
	err    error
}

func (s *xpRecorderStub) Record(_ context.Context, in consistency.XpEventInput) (*models.XpEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.events = append(s.events, in)
	return &models.XpEvent{ID: uint(len(s.events)), UserID: in.UserID, Fruit: in.Fruit, Amount: in.Amount, Reason: in.Reason}, nil
}

// flagSourceStub overrides base flags with a fixed map.
type flagSourceStub struct {
	values map[string]string
	err    error
}

func (s *flagSourceStub) Manager(_ context.Context, base *featureflags.Manager) (*featureflags.Manager, error) {
	if s.err != nil {
		return nil, s.err
	}
	return base.Merge(featureflags.NewManagerFromMap(s.values)), nil
}

func adminIs(ids ...uint) AdminChecker {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}
