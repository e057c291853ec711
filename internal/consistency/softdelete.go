package consistency

import (
	"fmt"
	"log/slog"

	"fellowship/internal/models"
	"fellowship/internal/observability"

	"gorm.io/gorm"
)

var softDeletableOwners = map[models.EntityKind]bool{
	models.KindPost:         true,
	models.KindPrayer:       true,
	models.KindGroup:        true,
	models.KindNotification: true,
}

// SoftDeletable reports whether kind participates in the soft-delete state
// machine.
func SoftDeletable(kind models.EntityKind) bool {
	return kind == models.KindComment || softDeletableOwners[kind]
}

// Live restricts a query to rows that are not soft-deleted. Use it on
// Table() queries; Model() queries on soft-delete models filter already.
func Live(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

// Deleted restricts a query to soft-deleted rows.
func Deleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped().Where("deleted_at IS NOT NULL")
}

// SoftDeleteOwner marks a row deleted without touching dependents or
// counters. Comments are routed through SoftDeleteFact so their post is
// decremented.
func (t *Tx) SoftDeleteOwner(kind models.EntityKind, id uint) error {
	if kind == models.KindComment {
		return t.SoftDeleteFact(models.FactComment, id)
	}
	table, err := softDeletableTable(kind)
	if err != nil {
		return err
	}
	if err := t.requireRow(kind, table, id); err != nil {
		return err
	}
	res := t.tx.Table(table).Where("id = ?", id).Scopes(Live).UpdateColumn("deleted_at", t.e.now())
	return TranslateError(res.Error)
}

// RestoreOwner clears a row's deleted mark.
func (t *Tx) RestoreOwner(kind models.EntityKind, id uint) error {
	if kind == models.KindComment {
		return t.RestoreFact(models.FactComment, id)
	}
	table, err := softDeletableTable(kind)
	if err != nil {
		return err
	}
	if err := t.requireRow(kind, table, id); err != nil {
		return err
	}
	res := t.tx.Table(table).Where("id = ?", id).Scopes(Deleted).UpdateColumn("deleted_at", gorm.Expr("NULL"))
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected > 0 {
		observability.ForTable(table).Restored(t.ctx(), id, slog.String("kind", string(kind)))
	}
	return nil
}

func softDeletableTable(kind models.EntityKind) (string, error) {
	if !SoftDeletable(kind) {
		return "", models.NewValidationError(fmt.Sprintf("%s rows cannot be soft-deleted", kind))
	}
	return TableFor(kind)
}
