package consistency

import (
	"errors"
	"fmt"
	"log/slog"

	"fellowship/internal/models"
	"fellowship/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// counter is a denormalized integer column on a parent row.
type counter struct {
	name   string
	parent models.EntityKind
	table  string
	column string
}

var (
	postComments  = counter{name: "posts.comment_count", parent: models.KindPost, table: "posts", column: "comment_count"}
	postReactions = counter{name: "posts.reaction_count", parent: models.KindPost, table: "posts", column: "reaction_count"}
	prayerCommits = counter{name: "prayers.commit_count", parent: models.KindPrayer, table: "prayers", column: "commit_count"}
)

// factTable describes a fact table and the counter its live rows feed.
type factTable struct {
	kind         models.FactKind
	table        string
	parentColumn string
	counter      counter
	softDelete   bool
}

var factTables = map[models.FactKind]factTable{
	models.FactComment: {
		kind:         models.FactComment,
		table:        "comments",
		parentColumn: "post_id",
		counter:      postComments,
		softDelete:   true,
	},
	models.FactReaction: {
		kind:         models.FactReaction,
		table:        "reactions",
		parentColumn: "post_id",
		counter:      postReactions,
	},
	models.FactPrayerCommit: {
		kind:         models.FactPrayerCommit,
		table:        "prayer_commits",
		parentColumn: "prayer_id",
		counter:      prayerCommits,
	},
}

func lookupFact(kind models.FactKind) (factTable, error) {
	if !kind.Valid() {
		return factTable{}, models.NewValidationError(fmt.Sprintf("unknown fact kind %q", kind))
	}
	return factTables[kind], nil
}

// increment adds n to the counter on parent id. The statement doubles as the
// parent existence check.
func (t *Tx) increment(c counter, id uint, n int64) error {
	res := t.tx.Table(c.table).
		Where("id = ?", id).
		UpdateColumn(c.column, gorm.Expr(c.column+" + ?", n))
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(string(c.parent), id)
	}
	observability.CounterAdjustments.WithLabelValues(c.name, "up").Add(float64(n))
	return nil
}

// decrement subtracts n from the counter on parent id, clamping at zero. A
// missing parent is not an error: the parent may be going away in the same
// transaction.
func (t *Tx) decrement(c counter, id uint, n int64) error {
	res := t.tx.Table(c.table).
		Where("id = ? AND "+c.column+" >= ?", id, n).
		UpdateColumn(c.column, gorm.Expr(c.column+" - ?", n))
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected > 0 {
		observability.CounterAdjustments.WithLabelValues(c.name, "down").Add(float64(n))
		return nil
	}

	res = t.tx.Table(c.table).
		Where("id = ? AND "+c.column+" < ?", id, n).
		UpdateColumn(c.column, 0)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected > 0 {
		observability.CounterClamps.WithLabelValues(c.name).Inc()
		t.e.logger.WarnContext(t.ctx(), "counter clamped at zero",
			slog.String("counter", c.name),
			slog.Uint64("parent_id", uint64(id)),
			slog.Int64("delta", n),
		)
	}
	return nil
}

// requireRow returns NotFound unless table holds a row with id, soft-deleted
// or not.
func (t *Tx) requireRow(kind models.EntityKind, table string, id uint) error {
	var n int64
	if err := t.tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return TranslateError(err)
	}
	if n == 0 {
		return models.NewNotFoundError(string(kind), id)
	}
	return nil
}

// create inserts a fact row. A foreign key failure on insert means the
// referenced parent does not exist.
func (t *Tx) create(ft factTable, parentID uint, value any) error {
	err := t.tx.Create(value).Error
	if err == nil {
		return nil
	}
	err = TranslateError(err)
	if errors.Is(err, models.ErrForeignKeyRestriction) {
		return models.NewNotFoundError(string(ft.counter.parent), parentID)
	}
	return err
}

// InsertComment stores c. A live comment increments its post's counter; a
// comment created already deleted only requires the post to exist.
func (t *Tx) InsertComment(c *models.Comment) error {
	ft := factTables[models.FactComment]
	if c.DeletedAt.Valid {
		if err := t.requireRow(models.KindPost, ft.counter.table, c.PostID); err != nil {
			return err
		}
		return t.create(ft, c.PostID, c)
	}
	if err := t.create(ft, c.PostID, c); err != nil {
		return err
	}
	return t.increment(ft.counter, c.PostID, 1)
}

// InsertReaction stores r and increments its post's counter. A duplicate
// (post, user, type) fails with a unique violation before the counter moves.
func (t *Tx) InsertReaction(r *models.Reaction) error {
	if !r.Type.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown reaction type %q", r.Type))
	}
	ft := factTables[models.FactReaction]
	if err := t.create(ft, r.PostID, r); err != nil {
		return err
	}
	return t.increment(ft.counter, r.PostID, 1)
}

// InsertPrayerCommit stores pc and increments its prayer's counter.
func (t *Tx) InsertPrayerCommit(pc *models.PrayerCommit) error {
	ft := factTables[models.FactPrayerCommit]
	if err := t.create(ft, pc.PrayerID, pc); err != nil {
		return err
	}
	return t.increment(ft.counter, pc.PrayerID, 1)
}

// InsertFact stores fact, which must be a pointer to the model for kind.
func (t *Tx) InsertFact(kind models.FactKind, fact any) (uint, error) {
	switch kind {
	case models.FactComment:
		c, ok := fact.(*models.Comment)
		if !ok {
			return 0, factTypeError(kind, fact)
		}
		if err := t.InsertComment(c); err != nil {
			return 0, err
		}
		return c.ID, nil
	case models.FactReaction:
		r, ok := fact.(*models.Reaction)
		if !ok {
			return 0, factTypeError(kind, fact)
		}
		if err := t.InsertReaction(r); err != nil {
			return 0, err
		}
		return r.ID, nil
	case models.FactPrayerCommit:
		pc, ok := fact.(*models.PrayerCommit)
		if !ok {
			return 0, factTypeError(kind, fact)
		}
		if err := t.InsertPrayerCommit(pc); err != nil {
			return 0, err
		}
		return pc.ID, nil
	}
	_, err := lookupFact(kind)
	return 0, err
}

func factTypeError(kind models.FactKind, fact any) error {
	return models.NewValidationError(fmt.Sprintf("%T is not a %s fact", fact, kind))
}

// parentOf returns the parent id of fact id regardless of its deleted state.
func (t *Tx) parentOf(ft factTable, id uint) (uint, error) {
	var parents []uint
	if err := t.tx.Table(ft.table).Where("id = ?", id).Limit(1).Pluck(ft.parentColumn, &parents).Error; err != nil {
		return 0, TranslateError(err)
	}
	if len(parents) == 0 {
		return 0, models.NewNotFoundError(string(ft.kind.Entity()), id)
	}
	return parents[0], nil
}

func softDeletableFact(kind models.FactKind) (factTable, error) {
	ft, err := lookupFact(kind)
	if err != nil {
		return factTable{}, err
	}
	if !ft.softDelete {
		return factTable{}, models.NewValidationError(fmt.Sprintf("%s rows cannot be soft-deleted", kind))
	}
	return ft, nil
}

// SoftDeleteFact moves a live fact to the deleted state and decrements its
// parent. Deleting an already deleted fact is a no-op.
func (t *Tx) SoftDeleteFact(kind models.FactKind, id uint) error {
	ft, err := softDeletableFact(kind)
	if err != nil {
		return err
	}
	parentID, err := t.parentOf(ft, id)
	if err != nil {
		return err
	}
	res := t.tx.Table(ft.table).
		Where("id = ?", id).
		Scopes(Live).
		UpdateColumn("deleted_at", t.e.now())
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return t.decrement(ft.counter, parentID, 1)
}

// RestoreFact moves a deleted fact back to live and increments its parent.
// Restoring a live fact is a no-op.
func (t *Tx) RestoreFact(kind models.FactKind, id uint) error {
	ft, err := softDeletableFact(kind)
	if err != nil {
		return err
	}
	parentID, err := t.parentOf(ft, id)
	if err != nil {
		return err
	}
	res := t.tx.Table(ft.table).
		Where("id = ?", id).
		Scopes(Deleted).
		UpdateColumn("deleted_at", gorm.Expr("NULL"))
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return t.increment(ft.counter, parentID, 1)
}

// DeleteFact hard-deletes one fact row.
func (t *Tx) DeleteFact(kind models.FactKind, id uint) error {
	ft, err := lookupFact(kind)
	if err != nil {
		return err
	}
	n, err := t.purgeFacts(ft, "id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError(string(kind.Entity()), id)
	}
	return nil
}

// purgeFacts hard-deletes the fact rows matching cond. Live rows are removed
// one parent at a time so each parent counter drops by exactly the number of
// rows its delete statement removed. Soft-deleted rows were already uncounted.
func (t *Tx) purgeFacts(ft factTable, cond string, args ...any) (int64, error) {
	var total int64
	for {
		var parents []uint
		q := t.tx.Table(ft.table).Where(cond, args...)
		if ft.softDelete {
			q = q.Scopes(Live)
		}
		if err := q.Distinct(ft.parentColumn).Pluck(ft.parentColumn, &parents).Error; err != nil {
			return total, TranslateError(err)
		}
		if len(parents) == 0 {
			break
		}
		for _, parentID := range parents {
			del := t.tx.Table(ft.table).Where(cond, args...).Where(ft.parentColumn+" = ?", parentID)
			if ft.softDelete {
				del = del.Scopes(Live)
			}
			res := del.Delete(nil)
			if res.Error != nil {
				return total, TranslateError(res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			total += res.RowsAffected
			if err := t.decrement(ft.counter, parentID, res.RowsAffected); err != nil {
				return total, err
			}
		}
	}

	if ft.softDelete {
		res := t.tx.Table(ft.table).Where(cond, args...).Scopes(Deleted).Delete(nil)
		if res.Error != nil {
			return total, TranslateError(res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}

// RecountPost rewrites both post counters from the fact tables.
func (t *Tx) RecountPost(postID uint) (*models.Post, error) {
	_, after, err := t.recountPost(postID)
	return after, err
}

// recountPost locks the post, counts its facts in statements that start
// after the lock is held, and writes the counts. It returns the post as it
// was under the lock and as written.
func (t *Tx) recountPost(postID uint) (before, after *models.Post, err error) {
	var post models.Post
	if err := t.lockParent(&post, models.KindPost, postID); err != nil {
		return nil, nil, err
	}
	snapshot := post

	var comments, reactions int64
	if err := t.tx.Table("comments").Where("post_id = ?", postID).Scopes(Live).Count(&comments).Error; err != nil {
		return nil, nil, TranslateError(err)
	}
	if err := t.tx.Table("reactions").Where("post_id = ?", postID).Count(&reactions).Error; err != nil {
		return nil, nil, TranslateError(err)
	}
	if err := t.tx.Table(postComments.table).Where("id = ?", postID).UpdateColumns(map[string]any{
		postComments.column:  comments,
		postReactions.column: reactions,
	}).Error; err != nil {
		return nil, nil, TranslateError(err)
	}
	post.CommentCount, post.ReactionCount = comments, reactions
	return &snapshot, &post, nil
}

// RecountPrayer rewrites the prayer commit counter from prayer_commits.
func (t *Tx) RecountPrayer(prayerID uint) (*models.Prayer, error) {
	_, after, err := t.recountPrayer(prayerID)
	return after, err
}

func (t *Tx) recountPrayer(prayerID uint) (before, after *models.Prayer, err error) {
	var prayer models.Prayer
	if err := t.lockParent(&prayer, models.KindPrayer, prayerID); err != nil {
		return nil, nil, err
	}
	snapshot := prayer

	var commits int64
	if err := t.tx.Table("prayer_commits").Where("prayer_id = ?", prayerID).Count(&commits).Error; err != nil {
		return nil, nil, TranslateError(err)
	}
	if err := t.tx.Table(prayerCommits.table).Where("id = ?", prayerID).
		UpdateColumn(prayerCommits.column, commits).Error; err != nil {
		return nil, nil, TranslateError(err)
	}
	prayer.CommitCount = commits
	return &snapshot, &prayer, nil
}

// lockParent loads row id into dest with FOR UPDATE, soft-deleted or not.
// Counter writers hold the same row lock, so counts taken afterwards see
// every fact whose increment committed before the lock was granted.
func (t *Tx) lockParent(dest any, kind models.EntityKind, id uint) error {
	err := t.tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(string(kind), id)
	}
	return TranslateError(err)
}
