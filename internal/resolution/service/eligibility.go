package service

import (
	"time"

	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	resolutiondomain "github.com/smallbiznis/pricelist/internal/resolution/domain"
)

// queryContext is the fixed input for one eligibility pass, snapshotted
// before any candidate is examined.
type queryContext struct {
	at       time.Time
	quantity int64
	segment  string
}

// isEligible decides whether a single promotion applies. Pure function of
// its inputs; the caller logs the malformed-window case as a data-integrity
// warning.
func isEligible(p promotiondomain.Promotion, record *pricedomain.PriceRecord, ctx queryContext) (bool, resolutiondomain.SkipReason) {
	// A closed window (end <= start) cannot occur per the write-path
	// invariant, but stored data may predate validation. Treat as never
	// eligible instead of failing the whole resolution.
	if p.WindowClosed() {
		return false, resolutiondomain.SkipMalformed
	}
	if !p.WindowContains(ctx.at) {
		return false, resolutiondomain.SkipWindow
	}
	if !p.Targets(record.ProductID, record.Category) {
		return false, resolutiondomain.SkipTarget
	}
	if ctx.quantity < p.MinQuantity {
		return false, resolutiondomain.SkipQuantity
	}
	if !p.MatchesSegment(ctx.segment) {
		return false, resolutiondomain.SkipSegment
	}
	return true, ""
}
