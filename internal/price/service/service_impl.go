package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricelist/internal/clock"
	obsmetrics "github.com/smallbiznis/pricelist/internal/observability/metrics"
	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	pkgdb "github.com/smallbiznis/pricelist/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    pricedomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    pricedomain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) pricedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("price.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Upsert(ctx context.Context, req pricedomain.UpsertRequest) (*pricedomain.PriceRecord, error) {
	now := s.clock.Now().UTC()

	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}

	entity := &pricedomain.PriceRecord{
		ProductID:      strings.TrimSpace(req.ProductID),
		Category:       strings.TrimSpace(req.Category),
		Currency:       strings.ToUpper(strings.TrimSpace(req.Currency)),
		BaseAmount:     req.BaseAmount,
		EffectiveFrom:  effectiveFrom,
		EffectiveUntil: req.EffectiveUntil,
		UpdatedAt:      now,
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	if req.ExpectedVersion == nil {
		return s.insert(ctx, entity, now)
	}
	return s.update(ctx, entity, *req.ExpectedVersion)
}

func (s *Service) insert(ctx context.Context, entity *pricedomain.PriceRecord, now time.Time) (*pricedomain.PriceRecord, error) {
	entity.ID = s.genID.Generate()
	entity.Version = 1
	entity.CreatedAt = now

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// Record already exists; the writer has to read it first and
			// retry with the observed version.
			s.metrics.RecordVersionConflict(ctx)
			return nil, pricedomain.ErrVersionConflict
		}
		return nil, err
	}

	s.metrics.RecordPriceWrite(ctx, "created")
	s.log.Info("price created",
		zap.String("product_id", entity.ProductID),
		zap.String("currency", entity.Currency),
	)
	return entity, nil
}

func (s *Service) update(ctx context.Context, entity *pricedomain.PriceRecord, expectedVersion int64) (*pricedomain.PriceRecord, error) {
	if expectedVersion <= 0 {
		return nil, pricedomain.ErrInvalidVersion
	}

	current, err := s.repo.FindByProduct(ctx, s.db, entity.ProductID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, pricedomain.ErrNotFound
	}

	updated, err := s.repo.UpdateVersioned(ctx, s.db, entity, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !updated {
		s.metrics.RecordVersionConflict(ctx)
		s.log.Warn("price write rejected on stale version",
			zap.String("product_id", entity.ProductID),
			zap.Int64("expected_version", expectedVersion),
			zap.Int64("stored_version", current.Version),
		)
		return nil, pricedomain.ErrVersionConflict
	}

	entity.ID = current.ID
	entity.CreatedAt = current.CreatedAt
	entity.Version = expectedVersion + 1

	s.metrics.RecordPriceWrite(ctx, "updated")
	return entity, nil
}

func (s *Service) GetAt(ctx context.Context, productID string, at time.Time) (*pricedomain.PriceRecord, error) {
	record, err := s.repo.FindByProduct(ctx, s.db, strings.TrimSpace(productID))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pricedomain.ErrNotFound
	}
	if !record.EffectiveAt(at.UTC()) {
		return nil, pricedomain.ErrNotFound
	}
	return record, nil
}
