package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricelist/internal/clock"
	"github.com/smallbiznis/pricelist/internal/config"
	obsmetrics "github.com/smallbiznis/pricelist/internal/observability/metrics"
	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"github.com/smallbiznis/pricelist/internal/promotion/registry"
	resolutiondomain "github.com/smallbiznis/pricelist/internal/resolution/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Pricing  *config.PricingConfigHolder
	PriceSvc pricedomain.Service
	Registry *registry.Registry
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	pricing  *config.PricingConfigHolder
	priceSvc pricedomain.Service
	registry *registry.Registry
	metrics  *obsmetrics.Metrics
}

func New(p Params) resolutiondomain.Service {
	return &Service{
		log:      p.Log.Named("resolution.service"),
		clock:    p.Clock,
		pricing:  p.Pricing,
		priceSvc: p.PriceSvc,
		registry: p.Registry,
		metrics:  p.Metrics,
	}
}

var hundred = decimal.NewFromInt(100)

func (s *Service) Resolve(ctx context.Context, productID string, query resolutiondomain.Query) (*resolutiondomain.ResolvedPrice, error) {
	cfg := s.pricing.Get()

	at := query.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	at = at.UTC()

	quantity := query.Quantity
	if quantity <= 0 {
		quantity = cfg.DefaultQuantity
	}

	// Snapshot the inputs once: the record and candidate list fetched here
	// are used for the whole resolution, so concurrent writes cannot tear
	// a single query.
	record, err := s.priceSvc.GetAt(ctx, productID, at)
	if err != nil {
		s.metrics.RecordResolution(ctx, "not_found")
		return nil, err
	}

	result := &resolutiondomain.ResolvedPrice{
		ProductID:    record.ProductID,
		Currency:     record.Currency,
		BaseAmount:   record.BaseAmount,
		FinalAmount:  record.BaseAmount,
		Steps:        []resolutiondomain.Step{},
		PriceVersion: record.Version,
		ResolvedAt:   at,
	}
	if requested := strings.ToUpper(strings.TrimSpace(query.Currency)); requested != "" && requested != record.Currency {
		result.RequestedCurrency = requested
	}

	if !query.ApplyPromotions {
		s.metrics.RecordResolution(ctx, "base_only")
		return result, nil
	}

	candidates, err := s.registry.CandidatesFor(ctx, record.ProductID, record.Category)
	if err != nil {
		s.metrics.RecordResolution(ctx, "error")
		return nil, err
	}

	qctx := queryContext{at: at, quantity: quantity, segment: strings.TrimSpace(query.Segment)}
	eligible := make([]promotiondomain.Promotion, 0, len(candidates))
	for _, p := range candidates {
		ok, reason := isEligible(p, record, qctx)
		if ok {
			eligible = append(eligible, p)
			continue
		}
		if reason == resolutiondomain.SkipMalformed {
			s.log.Warn("promotion has malformed window, treated as never eligible",
				zap.String("promotion_id", p.ID),
			)
		}
		result.Skipped = append(result.Skipped, resolutiondomain.Skipped{PromotionID: p.ID, Reason: reason})
	}

	ordered, dropped := resolveConflicts(eligible)
	result.Skipped = append(result.Skipped, dropped...)

	amount := record.BaseAmount
	for _, p := range ordered {
		before := amount
		switch p.Kind {
		case promotiondomain.PercentOff:
			amount = amount.Mul(hundred.Sub(p.Magnitude)).Div(hundred)
		case promotiondomain.AmountOff:
			amount = amount.Sub(p.Magnitude)
		case promotiondomain.FixedPrice:
			// Replaces the running amount but later steps still apply to
			// it, so a percent-off after a fixed price discounts the fixed
			// price rather than the base.
			amount = p.Magnitude
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		result.Steps = append(result.Steps, resolutiondomain.Step{
			PromotionID: p.ID,
			Kind:        p.Kind,
			Before:      before,
			After:       amount,
		})
		s.metrics.RecordSteps(ctx, string(p.Kind), 1)
	}

	// Rounding is a consequence of applying promotions. A base stored with
	// more precision than the currency scale comes back exactly as stored
	// when nothing applied.
	result.FinalAmount = amount
	if len(ordered) > 0 {
		result.FinalAmount = amount.Round(cfg.CurrencyScale)
	}

	s.metrics.RecordResolution(ctx, "resolved")
	s.log.Debug("price resolved",
		zap.String("product_id", record.ProductID),
		zap.String("base_amount", record.BaseAmount.String()),
		zap.String("final_amount", result.FinalAmount.String()),
		zap.Int("steps", len(result.Steps)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
