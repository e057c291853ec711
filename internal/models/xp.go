package models

import "time"

// Fruit is one of the nine fixed XP categories.
type Fruit string

const (
	FruitLove         Fruit = "love"
	FruitJoy          Fruit = "joy"
	FruitPeace        Fruit = "peace"
	FruitPatience     Fruit = "patience"
	FruitKindness     Fruit = "kindness"
	FruitGoodness     Fruit = "goodness"
	FruitFaithfulness Fruit = "faithfulness"
	FruitGentleness   Fruit = "gentleness"
	FruitSelfControl  Fruit = "self_control"
)

// Fruits lists every category in column order.
var Fruits = []Fruit{
	FruitLove,
	FruitJoy,
	FruitPeace,
	FruitPatience,
	FruitKindness,
	FruitGoodness,
	FruitFaithfulness,
	FruitGentleness,
	FruitSelfControl,
}

// Valid reports whether f is one of the nine categories.
func (f Fruit) Valid() bool {
	for _, known := range Fruits {
		if f == known {
			return true
		}
	}
	return false
}

// Column returns the xp_totals column holding the category, or "" for an
// unknown fruit.
func (f Fruit) Column() string {
	if !f.Valid() {
		return ""
	}
	return string(f)
}

// XpEvent is an immutable XP award. Amount is never negative.
type XpEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Fruit     Fruit     `gorm:"type:varchar(32);not null;index" json:"fruit"`
	Amount    int64     `gorm:"not null;check:chk_xp_events_amount,amount >= 0" json:"amount"`
	Reason    string    `gorm:"size:200;not null" json:"reason"`
	Metadata  *string   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (XpEvent) TableName() string {
	return "xp_events"
}

// XpTotals is the per-user projection of XpEvent amounts, one column per
// fruit. Columns are written only by the consistency engine.
type XpTotals struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Love         int64     `gorm:"->;<-:create;not null;default:0" json:"love"`
	Joy          int64     `gorm:"->;<-:create;not null;default:0" json:"joy"`
	Peace        int64     `gorm:"->;<-:create;not null;default:0" json:"peace"`
	Patience     int64     `gorm:"->;<-:create;not null;default:0" json:"patience"`
	Kindness     int64     `gorm:"->;<-:create;not null;default:0" json:"kindness"`
	Goodness     int64     `gorm:"->;<-:create;not null;default:0" json:"goodness"`
	Faithfulness int64     `gorm:"->;<-:create;not null;default:0" json:"faithfulness"`
	Gentleness   int64     `gorm:"->;<-:create;not null;default:0" json:"gentleness"`
	SelfControl  int64     `gorm:"->;<-:create;not null;default:0" json:"self_control"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (XpTotals) TableName() string {
	return "xp_totals"
}

// Get returns the total for a fruit.
func (t *XpTotals) Get(f Fruit) int64 {
	switch f {
	case FruitLove:
		return t.Love
	case FruitJoy:
		return t.Joy
	case FruitPeace:
		return t.Peace
	case FruitPatience:
		return t.Patience
	case FruitKindness:
		return t.Kindness
	case FruitGoodness:
		return t.Goodness
	case FruitFaithfulness:
		return t.Faithfulness
	case FruitGentleness:
		return t.Gentleness
	case FruitSelfControl:
		return t.SelfControl
	}
	return 0
}

// Sum returns the total across all fruits.
func (t *XpTotals) Sum() int64 {
	var sum int64
	for _, f := range Fruits {
		sum += t.Get(f)
	}
	return sum
}
