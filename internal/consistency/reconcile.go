package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"fellowship/internal/models"
	"fellowship/internal/observability"

	"golang.org/x/sync/errgroup"
)

// ReconcileReport summarizes a full repair pass. Repaired counts aggregates
// whose stored value differed from the recount.
type ReconcileReport struct {
	PostsChecked      int
	PostsRepaired     int
	PrayersChecked    int
	PrayersRepaired   int
	XpUsersRecomputed int
}

// Reconcile recounts every post and prayer, soft-deleted ones included, and
// then rebuilds every user's XP totals.
func (e *Engine) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	var err error
	report.PostsChecked, report.PostsRepaired, err = e.recountAll(ctx, &models.Post{}, e.recountPostDrift)
	if err != nil {
		return report, err
	}
	report.PrayersChecked, report.PrayersRepaired, err = e.recountAll(ctx, &models.Prayer{}, e.recountPrayerDrift)
	if err != nil {
		return report, err
	}
	report.XpUsersRecomputed, err = e.RecomputeAllXpTotals(ctx)
	if err != nil {
		return report, err
	}

	e.logger.InfoContext(ctx, "reconcile complete",
		slog.Int("posts_checked", report.PostsChecked),
		slog.Int("posts_repaired", report.PostsRepaired),
		slog.Int("prayers_checked", report.PrayersChecked),
		slog.Int("prayers_repaired", report.PrayersRepaired),
		slog.Int("xp_users", report.XpUsersRecomputed),
	)
	return report, nil
}

func (e *Engine) recountAll(ctx context.Context, model any, recount func(context.Context, uint) (bool, error)) (checked, repaired int, err error) {
	var ids []uint
	if err := e.db.WithContext(ctx).Unscoped().Model(model).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, 0, TranslateError(err)
	}

	var fixed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.recomputeLimit)
	for _, id := range ids {
		g.Go(func() error {
			changed, err := recount(gctx, id)
			if err != nil {
				return fmt.Errorf("recount %T %d: %w", model, id, err)
			}
			if changed {
				fixed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return len(ids), int(fixed.Load()), nil
}

func (e *Engine) recountPostDrift(ctx context.Context, id uint) (changed bool, err error) {
	err = e.run(ctx, "RecountPost", func(tx *Tx) error {
		before, after, err := tx.recountPost(id)
		if err != nil {
			return err
		}
		changed = before.CommentCount != after.CommentCount || before.ReactionCount != after.ReactionCount
		if changed {
			observability.AggregateDrift.WithLabelValues("post").Inc()
			e.logger.WarnContext(ctx, "post counters drifted",
				slog.Uint64("post_id", uint64(id)),
				slog.Int64("comment_count", before.CommentCount),
				slog.Int64("comment_count_actual", after.CommentCount),
				slog.Int64("reaction_count", before.ReactionCount),
				slog.Int64("reaction_count_actual", after.ReactionCount),
			)
		}
		return nil
	})
	return changed, err
}

func (e *Engine) recountPrayerDrift(ctx context.Context, id uint) (changed bool, err error) {
	err = e.run(ctx, "RecountPrayer", func(tx *Tx) error {
		before, after, err := tx.recountPrayer(id)
		if err != nil {
			return err
		}
		changed = before.CommitCount != after.CommitCount
		if changed {
			observability.AggregateDrift.WithLabelValues("prayer").Inc()
			e.logger.WarnContext(ctx, "prayer commit count drifted",
				slog.Uint64("prayer_id", uint64(id)),
				slog.Int64("commit_count", before.CommitCount),
				slog.Int64("commit_count_actual", after.CommitCount),
			)
		}
		return nil
	})
	return changed, err
}
