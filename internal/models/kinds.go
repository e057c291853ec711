package models

// EntityKind names a persisted entity type in the relational graph.
type EntityKind string

const (
	KindUser             EntityKind = "user"
	KindPost             EntityKind = "post"
	KindComment          EntityKind = "comment"
	KindReaction         EntityKind = "reaction"
	KindPrayer           EntityKind = "prayer"
	KindPrayerCommit     EntityKind = "prayer_commit"
	KindXpEvent          EntityKind = "xp_event"
	KindXpTotals         EntityKind = "xp_totals"
	KindGroup            EntityKind = "group"
	KindEvent            EntityKind = "event"
	KindEventRsvp        EntityKind = "event_rsvp"
	KindMentorship       EntityKind = "mentorship"
	KindMentorSession    EntityKind = "mentor_session"
	KindNotification     EntityKind = "notification"
	KindRefreshToken     EntityKind = "refresh_token"
	KindPasswordReset    EntityKind = "password_reset"
	KindMagicLink        EntityKind = "magic_link"
	KindDevice           EntityKind = "device"
	KindModerationAction EntityKind = "moderation_action"
	KindAuditLog         EntityKind = "audit_log"
	KindAIResponse       EntityKind = "ai_response"
	KindAIUsage          EntityKind = "ai_usage"
)

// FactKind names a fact table whose rows feed a counter on a parent entity.
type FactKind string

const (
	FactComment      FactKind = "comment"
	FactReaction     FactKind = "reaction"
	FactPrayerCommit FactKind = "prayer_commit"
)

// Entity returns the entity kind backing the fact table.
func (k FactKind) Entity() EntityKind {
	return EntityKind(k)
}

// Valid reports whether k is a known fact kind.
func (k FactKind) Valid() bool {
	switch k {
	case FactComment, FactReaction, FactPrayerCommit:
		return true
	}
	return false
}
