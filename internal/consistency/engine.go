// Package consistency keeps denormalized counters and XP totals in step with
// the fact rows they are derived from. Every adjustment runs in the same
// transaction as the fact mutation that causes it.
package consistency

import (
	"context"
	"log/slog"
	"time"

	"fellowship/internal/middleware"
	"fellowship/internal/models"
	"fellowship/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const defaultRecomputeConcurrency = 4

// Engine applies fact mutations together with their aggregate side effects.
type Engine struct {
	db             *gorm.DB
	now            func() time.Time
	logger         *slog.Logger
	recomputeLimit int
	relations      []Relation
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for deleted_at and updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger overrides the logger used for clamp warnings and cascade summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecomputeConcurrency bounds the number of users recomputed in parallel.
func WithRecomputeConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recomputeLimit = n
		}
	}
}

// WithRelations replaces the referential policy table.
func WithRelations(rels []Relation) Option {
	return func(e *Engine) {
		e.relations = append([]Relation(nil), rels...)
	}
}

// NewEngine returns an Engine over db.
func NewEngine(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:             db,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         middleware.Logger,
		recomputeLimit: defaultRecomputeConcurrency,
		relations:      DefaultRelations,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Tx is an Engine bound to an open transaction. Its methods must not be used
// after the transaction ends.
type Tx struct {
	tx *gorm.DB
	e  *Engine
}

// Transaction runs fn in a new transaction. Any error returned by fn rolls
// back the fact mutations and every aggregate adjustment made through tx.
func (e *Engine) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{tx: tx, e: e})
	})
}

// Bind wraps a transaction opened by the caller.
func (e *Engine) Bind(tx *gorm.DB) *Tx {
	return &Tx{tx: tx, e: e}
}

// DB exposes the underlying transaction for pass-through writes.
func (t *Tx) DB() *gorm.DB {
	return t.tx
}

func (t *Tx) ctx() context.Context {
	if t.tx.Statement != nil && t.tx.Statement.Context != nil {
		return t.tx.Statement.Context
	}
	return context.Background()
}

func (e *Engine) run(ctx context.Context, op string, fn func(tx *Tx) error) (err error) {
	span, ctx := observability.NewSpan(ctx, "consistency."+op, attribute.String("consistency.op", op))
	defer func() {
		span.SetError(err)
		span.End()
	}()
	return e.Transaction(ctx, fn)
}

// InsertComment stores c and counts it on its post unless it is created
// already soft-deleted.
func (e *Engine) InsertComment(ctx context.Context, c *models.Comment) error {
	return e.run(ctx, "InsertComment", func(tx *Tx) error { return tx.InsertComment(c) })
}

// InsertReaction stores r and counts it on its post.
func (e *Engine) InsertReaction(ctx context.Context, r *models.Reaction) error {
	return e.run(ctx, "InsertReaction", func(tx *Tx) error { return tx.InsertReaction(r) })
}

// InsertPrayerCommit stores pc and counts it on its prayer.
func (e *Engine) InsertPrayerCommit(ctx context.Context, pc *models.PrayerCommit) error {
	return e.run(ctx, "InsertPrayerCommit", func(tx *Tx) error { return tx.InsertPrayerCommit(pc) })
}

// InsertFact dispatches on kind and returns the new fact's id.
func (e *Engine) InsertFact(ctx context.Context, kind models.FactKind, fact any) (uint, error) {
	var id uint
	err := e.run(ctx, "InsertFact", func(tx *Tx) error {
		var err error
		id, err = tx.InsertFact(kind, fact)
		return err
	})
	return id, err
}

// SoftDeleteFact marks a fact deleted and uncounts it.
func (e *Engine) SoftDeleteFact(ctx context.Context, kind models.FactKind, id uint) error {
	return e.run(ctx, "SoftDeleteFact", func(tx *Tx) error { return tx.SoftDeleteFact(kind, id) })
}

// RestoreFact clears a fact's deleted mark and counts it again.
func (e *Engine) RestoreFact(ctx context.Context, kind models.FactKind, id uint) error {
	return e.run(ctx, "RestoreFact", func(tx *Tx) error { return tx.RestoreFact(kind, id) })
}

// DeleteFact removes a fact row and uncounts it if it was live.
func (e *Engine) DeleteFact(ctx context.Context, kind models.FactKind, id uint) error {
	return e.run(ctx, "DeleteFact", func(tx *Tx) error { return tx.DeleteFact(kind, id) })
}

// RecordXpEvent stores an XP event and adds it to the user's totals.
func (e *Engine) RecordXpEvent(ctx context.Context, in XpEventInput) (*models.XpEvent, error) {
	var ev *models.XpEvent
	err := e.run(ctx, "RecordXpEvent", func(tx *Tx) error {
		var err error
		ev, err = tx.RecordXpEvent(in)
		return err
	})
	return ev, err
}

// RecomputeXpTotals rebuilds a user's totals from the event log.
func (e *Engine) RecomputeXpTotals(ctx context.Context, userID uint) (*models.XpTotals, error) {
	var totals *models.XpTotals
	start := time.Now()
	err := e.run(ctx, "RecomputeXpTotals", func(tx *Tx) error {
		var err error
		totals, err = tx.RecomputeXpTotals(userID)
		return err
	})
	observability.XpRecomputeDuration.Observe(time.Since(start).Seconds())
	return totals, err
}

// RecountPost rebuilds a post's counters from its comments and reactions.
func (e *Engine) RecountPost(ctx context.Context, postID uint) (*models.Post, error) {
	var post *models.Post
	err := e.run(ctx, "RecountPost", func(tx *Tx) error {
		var err error
		post, err = tx.RecountPost(postID)
		return err
	})
	return post, err
}

// RecountPrayer rebuilds a prayer's commit counter.
func (e *Engine) RecountPrayer(ctx context.Context, prayerID uint) (*models.Prayer, error) {
	var prayer *models.Prayer
	err := e.run(ctx, "RecountPrayer", func(tx *Tx) error {
		var err error
		prayer, err = tx.RecountPrayer(prayerID)
		return err
	})
	return prayer, err
}

// DeleteOwner deletes a row of any kind, applying the referential policies
// to its dependents.
func (e *Engine) DeleteOwner(ctx context.Context, kind models.EntityKind, id uint) error {
	return e.run(ctx, "DeleteOwner", func(tx *Tx) error { return tx.DeleteOwner(kind, id) })
}

// SoftDeleteOwner marks a soft-deletable row deleted.
func (e *Engine) SoftDeleteOwner(ctx context.Context, kind models.EntityKind, id uint) error {
	return e.run(ctx, "SoftDeleteOwner", func(tx *Tx) error { return tx.SoftDeleteOwner(kind, id) })
}

// RestoreOwner clears a soft-deletable row's deleted mark.
func (e *Engine) RestoreOwner(ctx context.Context, kind models.EntityKind, id uint) error {
	return e.run(ctx, "RestoreOwner", func(tx *Tx) error { return tx.RestoreOwner(kind, id) })
}
