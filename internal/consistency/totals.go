package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"fellowship/internal/models"
	"fellowship/internal/observability"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const totalsTable = "xp_totals"

// XpEventInput is the payload of RecordXpEvent.
type XpEventInput struct {
	UserID   uint
	Fruit    models.Fruit
	Amount   int64
	Reason   string
	Metadata *string
}

// Validate checks the input before anything is written.
func (in XpEventInput) Validate() error {
	if in.UserID == 0 {
		return models.NewValidationError("user_id is required")
	}
	if !in.Fruit.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown fruit %q", in.Fruit))
	}
	if in.Amount < 0 {
		return models.NewCheckViolationError("xp amount must not be negative", nil)
	}
	if in.Reason == "" {
		return models.NewValidationError("reason is required")
	}
	return nil
}

// RecordXpEvent inserts the event and adds its amount to the matching column
// of the user's totals row, creating the row on first use.
func (t *Tx) RecordXpEvent(in XpEventInput) (*models.XpEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := t.requireRow(models.KindUser, "users", in.UserID); err != nil {
		return nil, err
	}

	ev := &models.XpEvent{
		UserID:   in.UserID,
		Fruit:    in.Fruit,
		Amount:   in.Amount,
		Reason:   in.Reason,
		Metadata: in.Metadata,
	}
	if err := t.tx.Create(ev).Error; err != nil {
		return nil, TranslateError(err)
	}
	if err := t.addToTotals(in.UserID, in.Fruit, in.Amount); err != nil {
		return nil, err
	}
	observability.XpPointsRecorded.WithLabelValues(string(in.Fruit)).Add(float64(in.Amount))
	return ev, nil
}

// ensureTotals creates the user's totals row with every column at zero if it
// does not exist yet.
func (t *Tx) ensureTotals(userID uint) error {
	err := t.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.XpTotals{UserID: userID}).Error
	return TranslateError(err)
}

func (t *Tx) addToTotals(userID uint, fruit models.Fruit, amount int64) error {
	col := fruit.Column()
	if col == "" {
		return models.NewValidationError(fmt.Sprintf("unknown fruit %q", fruit))
	}
	if err := t.ensureTotals(userID); err != nil {
		return err
	}
	res := t.tx.Table(totalsTable).Where("user_id = ?", userID).Updates(map[string]any{
		col:          gorm.Expr(col+" + ?", amount),
		"updated_at": t.e.now(),
	})
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(string(models.KindXpTotals), userID)
	}
	return nil
}

type fruitSum struct {
	Fruit models.Fruit
	Total int64
}

// RecomputeXpTotals rewrites every column of the user's totals row from the
// event log. The row is locked before the log is read so concurrent
// RecordXpEvent calls are either fully included or applied on top.
func (t *Tx) RecomputeXpTotals(userID uint) (*models.XpTotals, error) {
	if err := t.requireRow(models.KindUser, "users", userID); err != nil {
		return nil, err
	}
	if err := t.ensureTotals(userID); err != nil {
		return nil, err
	}
	now := t.e.now()
	if err := t.tx.Table(totalsTable).Where("user_id = ?", userID).UpdateColumn("updated_at", now).Error; err != nil {
		return nil, TranslateError(err)
	}

	var sums []fruitSum
	if err := t.tx.Model(&models.XpEvent{}).
		Select("fruit, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("fruit").
		Scan(&sums).Error; err != nil {
		return nil, TranslateError(err)
	}

	values := make(map[string]any, len(models.Fruits)+1)
	for _, f := range models.Fruits {
		values[f.Column()] = int64(0)
	}
	for _, s := range sums {
		col := s.Fruit.Column()
		if col == "" {
			t.e.logger.WarnContext(t.ctx(), "xp event with unknown fruit ignored",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("fruit", string(s.Fruit)),
			)
			continue
		}
		values[col] = s.Total
	}
	values["updated_at"] = now
	if err := t.tx.Table(totalsTable).Where("user_id = ?", userID).Updates(values).Error; err != nil {
		return nil, TranslateError(err)
	}

	var totals models.XpTotals
	if err := t.tx.Where("user_id = ?", userID).First(&totals).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &totals, nil
}

// RecomputeAllXpTotals recomputes every user that has events or a totals
// row, one transaction per user, with bounded parallelism. It returns the
// number of users recomputed.
func (e *Engine) RecomputeAllXpTotals(ctx context.Context) (int, error) {
	var fromEvents, fromTotals []uint
	db := e.db.WithContext(ctx)
	if err := db.Model(&models.XpEvent{}).Distinct("user_id").Pluck("user_id", &fromEvents).Error; err != nil {
		return 0, TranslateError(err)
	}
	if err := db.Model(&models.XpTotals{}).Pluck("user_id", &fromTotals).Error; err != nil {
		return 0, TranslateError(err)
	}
	userIDs := mergeIDs(fromEvents, fromTotals)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.recomputeLimit)
	for _, userID := range userIDs {
		g.Go(func() error {
			if _, err := e.RecomputeXpTotals(gctx, userID); err != nil {
				return fmt.Errorf("recompute xp totals for user %d: %w", userID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	e.logger.InfoContext(ctx, "xp totals recomputed", slog.Int("users", len(userIDs)))
	return len(userIDs), nil
}

func mergeIDs(lists ...[]uint) []uint {
	seen := make(map[uint]struct{})
	var out []uint
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
