package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
)

type Service interface {
	// Resolve computes the effective price of a product at query time.
	Resolve(ctx context.Context, productID string, query Query) (*ResolvedPrice, error)
}

// Query carries the evaluation context for one resolution.
type Query struct {
	// At is the evaluation timestamp; zero means the engine clock's now.
	At time.Time
	// Quantity requested; zero falls back to the configured default.
	Quantity int64
	// Segment is the customer segment, empty when anonymous.
	Segment string
	// Currency is advisory; the stored currency wins and a mismatch is
	// reported on the result.
	Currency string
	// ApplyPromotions toggles the evaluator/resolver pass. When false the
	// base amount is returned with an empty step list.
	ApplyPromotions bool
}

// Step records one promotion application for the audit trace.
type Step struct {
	PromotionID string               `json:"promotion_id"`
	Kind        promotiondomain.Kind `json:"kind"`
	Before      decimal.Decimal      `json:"before"`
	After       decimal.Decimal      `json:"after"`
}

// SkipReason explains why a candidate promotion did not apply.
type SkipReason string

var (
	SkipWindow         SkipReason = "outside_window"
	SkipTarget         SkipReason = "target_mismatch"
	SkipQuantity       SkipReason = "below_min_quantity"
	SkipSegment        SkipReason = "segment_mismatch"
	SkipMalformed      SkipReason = "malformed_window"
	SkipExclusionGroup SkipReason = "exclusion_group"
	SkipNotStackable   SkipReason = "not_stackable"
)

// Skipped is the audit record for a candidate that was not applied.
type Skipped struct {
	PromotionID string     `json:"promotion_id"`
	Reason      SkipReason `json:"reason"`
	// ExcludedBy names the surviving promotion for conflict skips.
	ExcludedBy string `json:"excluded_by,omitempty"`
}

// ResolvedPrice is the outcome of one resolution. Steps are appended during
// the fold and never mutated afterwards; the caller owns the value.
type ResolvedPrice struct {
	ProductID         string          `json:"product_id"`
	Currency          string          `json:"currency"`
	RequestedCurrency string          `json:"requested_currency,omitempty"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
	Steps             []Step          `json:"steps"`
	Skipped           []Skipped       `json:"skipped,omitempty"`
	PriceVersion      int64           `json:"price_version"`
	ResolvedAt        time.Time       `json:"resolved_at"`
}
