package service

import (
	"context"
	"log/slog"

	"fellowship/internal/consistency"
	"fellowship/internal/featureflags"
	"fellowship/internal/models"
	"fellowship/internal/observability"
)

const (
	// CommentKindnessXP is awarded to the author of a new comment.
	CommentKindnessXP int64 = 1
	// PrayerCommitFaithfulnessXP is awarded to a user who commits to pray.
	PrayerCommitFaithfulnessXP int64 = 5
)

// XpRecorder records XP events.
type XpRecorder interface {
	Record(ctx context.Context, in consistency.XpEventInput) (*models.XpEvent, error)
}

// FlagSource layers stored flag values over a base manager.
type FlagSource interface {
	Manager(ctx context.Context, base *featureflags.Manager) (*featureflags.Manager, error)
}

// Rewarder grants XP for activity while the xp_rewards flag is enabled for
// the user. Awards happen after the activity commits and never fail it.
type Rewarder struct {
	xp    XpRecorder
	flags FlagSource
	base  *featureflags.Manager
}

func NewRewarder(xp XpRecorder, flags FlagSource, base *featureflags.Manager) *Rewarder {
	return &Rewarder{xp: xp, flags: flags, base: base}
}

// Enabled reports whether userID currently earns rewards.
func (r *Rewarder) Enabled(ctx context.Context, userID uint) bool {
	if r == nil || r.xp == nil {
		return false
	}
	m := r.base
	if r.flags != nil {
		merged, err := r.flags.Manager(ctx, r.base)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "feature flag lookup failed",
				slog.String("flag", featureflags.XpRewards),
				slog.String("error", err.Error()),
			)
		} else {
			m = merged
		}
	}
	return m.Enabled(featureflags.XpRewards, userID)
}

// Award records amount of fruit for userID when rewards are on. It returns
// the recorded event, or nil when nothing was recorded.
func (r *Rewarder) Award(ctx context.Context, userID uint, fruit models.Fruit, amount int64, reason string) *models.XpEvent {
	if !r.Enabled(ctx, userID) {
		return nil
	}
	ev, err := r.xp.Record(ctx, consistency.XpEventInput{
		UserID: userID,
		Fruit:  fruit,
		Amount: amount,
		Reason: reason,
	})
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "xp reward failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("fruit", string(fruit)),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return ev
}
