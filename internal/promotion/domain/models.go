package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Kind string

var (
	PercentOff Kind = "PERCENT_OFF"
	AmountOff  Kind = "AMOUNT_OFF"
	FixedPrice Kind = "FIXED_PRICE"
)

// State is the promotion lifecycle derived from the time window. It is
// recomputed against the evaluation timestamp on every use and never stored,
// so a stale status column cannot exist.
type State string

var (
	Draft   State = "DRAFT"
	Active  State = "ACTIVE"
	Expired State = "EXPIRED"
)

type Promotion struct {
	ID             string                      `json:"id" gorm:"primaryKey;type:text"`
	Name           string                      `json:"name,omitempty" gorm:"type:text"`
	Kind           Kind                        `json:"kind" gorm:"type:text;not null"`
	Magnitude      decimal.Decimal             `json:"magnitude" gorm:"type:numeric(20,6);not null"`
	Products       datatypes.JSONSlice[string] `json:"products,omitempty"`
	Categories     datatypes.JSONSlice[string] `json:"categories,omitempty"`
	StartsAt       *time.Time                  `json:"starts_at,omitempty"`
	EndsAt         *time.Time                  `json:"ends_at,omitempty"`
	MinQuantity    int64                       `json:"min_quantity" gorm:"not null;default:1"`
	Segments       datatypes.JSONSlice[string] `json:"segments,omitempty"`
	Priority       int                         `json:"priority" gorm:"not null;default:100"`
	Stackable      bool                        `json:"stackable" gorm:"not null;default:true"`
	ExclusionGroup string                      `json:"exclusion_group,omitempty" gorm:"type:text"`
	CreatedAt      time.Time                   `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time                   `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Promotion) TableName() string { return "promotions" }

// StateAt derives the lifecycle state at the given instant.
func (p Promotion) StateAt(at time.Time) State {
	if p.StartsAt != nil && at.Before(*p.StartsAt) {
		return Draft
	}
	if p.EndsAt != nil && !at.Before(*p.EndsAt) {
		return Expired
	}
	return Active
}

// WindowContains reports whether at falls inside [StartsAt, EndsAt).
// Unset bounds are open.
func (p Promotion) WindowContains(at time.Time) bool {
	return p.StateAt(at) == Active
}

// WindowClosed reports a degenerate window (end at or before start), which
// the invariants forbid but stored data may still carry.
func (p Promotion) WindowClosed() bool {
	return p.StartsAt != nil && p.EndsAt != nil && !p.StartsAt.Before(*p.EndsAt)
}

// Targets reports whether the promotion's target sets could match the
// product. Empty product and category sets match everything.
func (p Promotion) Targets(productID, category string) bool {
	if len(p.Products) == 0 && len(p.Categories) == 0 {
		return true
	}
	for _, id := range p.Products {
		if id == productID {
			return true
		}
	}
	if category == "" {
		return false
	}
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// MatchesSegment reports whether the customer segment is covered. An empty
// segment set matches all segments.
func (p Promotion) MatchesSegment(segment string) bool {
	if len(p.Segments) == 0 {
		return true
	}
	for _, s := range p.Segments {
		if s == segment {
			return true
		}
	}
	return false
}

var (
	percentFloor   = decimal.Zero
	percentCeiling = decimal.NewFromInt(100)
)

// Validate checks promotion invariants before a write is accepted.
func (p Promotion) Validate() error {
	switch p.Kind {
	case PercentOff:
		if p.Magnitude.LessThan(percentFloor) || p.Magnitude.GreaterThan(percentCeiling) {
			return ErrInvalidMagnitude
		}
	case AmountOff, FixedPrice:
		if p.Magnitude.IsNegative() {
			return ErrInvalidMagnitude
		}
	default:
		return ErrInvalidKind
	}
	if p.StartsAt != nil && p.EndsAt != nil && !p.StartsAt.Before(*p.EndsAt) {
		return ErrInvalidWindow
	}
	if p.MinQuantity < 1 {
		return ErrInvalidMinQuantity
	}
	return nil
}
