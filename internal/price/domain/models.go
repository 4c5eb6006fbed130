package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PriceRecord is the authoritative base price for a product. Records are
// immutable snapshots: writers bump Version, readers always see a complete
// record as of some version.
type PriceRecord struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey"`
	ProductID      string          `json:"product_id" gorm:"column:product_id;type:text;not null;uniqueIndex"`
	Category       string          `json:"category,omitempty" gorm:"type:text"`
	Currency       string          `json:"currency" gorm:"type:varchar(3);not null"`
	BaseAmount     decimal.Decimal `json:"base_amount" gorm:"type:numeric(20,6);not null"`
	EffectiveFrom  time.Time       `json:"effective_from" gorm:"not null"`
	EffectiveUntil *time.Time      `json:"effective_until,omitempty"`
	Version        int64           `json:"version" gorm:"not null;default:1"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceRecord) TableName() string { return "price_records" }

// EffectiveAt reports whether the record is effective at the given instant.
// The window is [EffectiveFrom, EffectiveUntil).
func (p PriceRecord) EffectiveAt(at time.Time) bool {
	if at.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveUntil != nil && !at.Before(*p.EffectiveUntil) {
		return false
	}
	return true
}

// Validate checks record invariants before a write is accepted.
func (p PriceRecord) Validate() error {
	if p.ProductID == "" {
		return ErrInvalidProduct
	}
	if len(p.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if p.BaseAmount.IsNegative() {
		return ErrInvalidBaseAmount
	}
	if p.EffectiveUntil != nil && p.EffectiveUntil.Before(p.EffectiveFrom) {
		return ErrInvalidWindow
	}
	return nil
}
