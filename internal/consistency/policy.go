package consistency

import (
	"fmt"
	"log/slog"

	"fellowship/internal/models"
	"fellowship/internal/observability"

	"gorm.io/gorm"
)

// Policy is the action applied to dependent rows when their parent is deleted.
type Policy string

const (
	// Cascade deletes dependents, applying the same rules recursively.
	Cascade Policy = "CASCADE"
	// SetNull clears the dependent's reference and keeps the row.
	SetNull Policy = "SET NULL"
	// Restrict blocks the delete while any dependent exists.
	Restrict Policy = "RESTRICT"
)

// Relation is one foreign key edge of the entity graph.
type Relation struct {
	Parent models.EntityKind `json:"parent" yaml:"parent"`
	Child  models.EntityKind `json:"child" yaml:"child"`
	Column string            `json:"column" yaml:"column"`
	Policy Policy            `json:"policy" yaml:"policy"`
}

type tabler interface {
	TableName() string
}

var entities = map[models.EntityKind]tabler{
	models.KindUser:             models.User{},
	models.KindPost:             models.Post{},
	models.KindComment:          models.Comment{},
	models.KindReaction:         models.Reaction{},
	models.KindPrayer:           models.Prayer{},
	models.KindPrayerCommit:     models.PrayerCommit{},
	models.KindXpEvent:          models.XpEvent{},
	models.KindXpTotals:         models.XpTotals{},
	models.KindGroup:            models.Group{},
	models.KindEvent:            models.Event{},
	models.KindEventRsvp:        models.EventRsvp{},
	models.KindMentorship:       models.Mentorship{},
	models.KindMentorSession:    models.MentorSession{},
	models.KindNotification:     models.Notification{},
	models.KindRefreshToken:     models.RefreshToken{},
	models.KindPasswordReset:    models.PasswordReset{},
	models.KindMagicLink:        models.MagicLink{},
	models.KindDevice:           models.Device{},
	models.KindModerationAction: models.ModerationAction{},
	models.KindAuditLog:         models.AuditLog{},
	models.KindAIResponse:       models.AIResponse{},
	models.KindAIUsage:          models.AIUsage{},
}

// DefaultRelations is evaluated in order: every RESTRICT edge of a parent is
// checked before any SET NULL or CASCADE edge of that parent runs.
var DefaultRelations = []Relation{
	{models.KindUser, models.KindPost, "user_id", Restrict},
	{models.KindUser, models.KindGroup, "creator_id", Restrict},
	{models.KindUser, models.KindPrayer, "user_id", Cascade},
	{models.KindUser, models.KindPrayerCommit, "user_id", Cascade},
	{models.KindUser, models.KindComment, "user_id", Cascade},
	{models.KindUser, models.KindReaction, "user_id", Cascade},
	{models.KindUser, models.KindNotification, "user_id", Cascade},
	{models.KindUser, models.KindRefreshToken, "user_id", Cascade},
	{models.KindUser, models.KindPasswordReset, "user_id", Cascade},
	{models.KindUser, models.KindMagicLink, "user_id", Cascade},
	{models.KindUser, models.KindDevice, "user_id", Cascade},
	{models.KindUser, models.KindMentorship, "mentor_id", Cascade},
	{models.KindUser, models.KindMentorship, "mentee_id", Cascade},
	{models.KindUser, models.KindEvent, "creator_id", Cascade},
	{models.KindUser, models.KindEventRsvp, "user_id", Cascade},
	{models.KindUser, models.KindModerationAction, "actor_id", Cascade},
	{models.KindUser, models.KindXpEvent, "user_id", Cascade},
	{models.KindUser, models.KindXpTotals, "user_id", Cascade},
	{models.KindUser, models.KindAuditLog, "actor_id", SetNull},
	{models.KindUser, models.KindAIResponse, "user_id", SetNull},
	{models.KindUser, models.KindAIUsage, "user_id", SetNull},
	{models.KindPost, models.KindComment, "post_id", Cascade},
	{models.KindPost, models.KindReaction, "post_id", Cascade},
	{models.KindPost, models.KindPrayer, "linked_post_id", SetNull},
	{models.KindGroup, models.KindPost, "group_id", SetNull},
	{models.KindGroup, models.KindPrayer, "group_id", SetNull},
	{models.KindGroup, models.KindEvent, "group_id", SetNull},
	{models.KindEvent, models.KindEventRsvp, "event_id", Cascade},
	{models.KindMentorship, models.KindMentorSession, "mentorship_id", Cascade},
	{models.KindPrayer, models.KindPrayerCommit, "prayer_id", Cascade},
}

// Policies returns a copy of the engine's relation table.
func (e *Engine) Policies() []Relation {
	out := make([]Relation, len(e.relations))
	copy(out, e.relations)
	return out
}

// TableFor returns the table backing kind.
func TableFor(kind models.EntityKind) (string, error) {
	ent, ok := entities[kind]
	if !ok {
		return "", models.NewValidationError(fmt.Sprintf("unknown entity kind %q", kind))
	}
	return ent.TableName(), nil
}

// cascadeOnly kinds are removed only together with their owning user, so the
// XP totals projection never loses an event without its total going too.
var cascadeOnly = map[models.EntityKind]models.EntityKind{
	models.KindXpEvent:  models.KindUser,
	models.KindXpTotals: models.KindUser,
}

func (e *Engine) relationsFrom(parent models.EntityKind, policy Policy) []Relation {
	var out []Relation
	for _, rel := range e.relations {
		if rel.Parent == parent && rel.Policy == policy {
			out = append(out, rel)
		}
	}
	return out
}

// DeleteOwner deletes the row kind/id and applies every relation whose
// parent it is. A RESTRICT hit anywhere in the cascade returns a
// ForeignKeyRestriction error and the caller's transaction rolls back.
func (t *Tx) DeleteOwner(kind models.EntityKind, id uint) error {
	table, err := TableFor(kind)
	if err != nil {
		return err
	}
	if owner, ok := cascadeOnly[kind]; ok {
		return models.NewValidationError(fmt.Sprintf("%s rows are deleted only with their %s", kind, owner))
	}
	if err := t.requireRow(kind, table, id); err != nil {
		return err
	}
	if err := t.deleteRows(kind, []uint{id}); err != nil {
		return err
	}
	observability.ForTable(table).Deleted(t.ctx(), id, slog.String("kind", string(kind)))
	return nil
}

// deleteRows deletes rows of kind with the given ids after resolving their
// dependents.
func (t *Tx) deleteRows(kind models.EntityKind, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	table, err := TableFor(kind)
	if err != nil {
		return err
	}

	for _, rel := range t.e.relationsFrom(kind, Restrict) {
		childTable, err := TableFor(rel.Child)
		if err != nil {
			return err
		}
		var n int64
		if err := t.tx.Table(childTable).Where(rel.Column+" IN ?", ids).Count(&n).Error; err != nil {
			return TranslateError(err)
		}
		if n > 0 {
			observability.RestrictedDeletes.WithLabelValues(string(rel.Parent), string(rel.Child)).Inc()
			t.e.logger.InfoContext(t.ctx(), "delete blocked by dependent rows",
				slog.String("parent", string(rel.Parent)),
				slog.String("child", string(rel.Child)),
				slog.Int64("count", n),
			)
			return models.NewForeignKeyRestrictionError(rel.Parent, rel.Child, n)
		}
	}

	for _, rel := range t.e.relationsFrom(kind, SetNull) {
		childTable, err := TableFor(rel.Child)
		if err != nil {
			return err
		}
		res := t.tx.Table(childTable).Where(rel.Column+" IN ?", ids).UpdateColumn(rel.Column, gorm.Expr("NULL"))
		if res.Error != nil {
			return TranslateError(res.Error)
		}
		if res.RowsAffected > 0 {
			observability.CascadeRowsNullified.WithLabelValues(string(rel.Child)).Add(float64(res.RowsAffected))
		}
	}

	for _, rel := range t.e.relationsFrom(kind, Cascade) {
		if err := t.cascade(rel, ids); err != nil {
			return err
		}
	}

	if ft, ok := factTables[models.FactKind(kind)]; ok {
		_, err := t.purgeFacts(ft, "id IN ?", ids)
		return err
	}
	res := t.tx.Table(table).Where("id IN ?", ids).Delete(nil)
	return TranslateError(res.Error)
}

func (t *Tx) cascade(rel Relation, parentIDs []uint) error {
	childTable, err := TableFor(rel.Child)
	if err != nil {
		return err
	}

	if ft, ok := factTables[models.FactKind(rel.Child)]; ok {
		n, err := t.purgeFacts(ft, rel.Column+" IN ?", parentIDs)
		if err != nil {
			return err
		}
		if n > 0 {
			observability.CascadeRowsDeleted.WithLabelValues(string(rel.Child)).Add(float64(n))
		}
		return nil
	}

	var childIDs []uint
	if err := t.tx.Table(childTable).Where(rel.Column+" IN ?", parentIDs).Pluck("id", &childIDs).Error; err != nil {
		return TranslateError(err)
	}
	if len(childIDs) == 0 {
		return nil
	}
	if err := t.deleteRows(rel.Child, childIDs); err != nil {
		return err
	}
	observability.CascadeRowsDeleted.WithLabelValues(string(rel.Child)).Add(float64(len(childIDs)))
	return nil
}
