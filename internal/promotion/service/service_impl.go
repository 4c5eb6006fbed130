package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricelist/internal/clock"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"github.com/smallbiznis/pricelist/internal/promotion/registry"
	pkgdb "github.com/smallbiznis/pricelist/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     promotiondomain.Repository
	Registry *registry.Registry
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     promotiondomain.Repository
	registry *registry.Registry
}

func New(p Params) promotiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("promotion.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
	}
}

func (s *Service) Create(ctx context.Context, req promotiondomain.CreateRequest) (*promotiondomain.Promotion, error) {
	now := s.clock.Now().UTC()

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = s.genID.Generate().String()
	}

	minQuantity := int64(1)
	if req.MinQuantity != nil {
		minQuantity = *req.MinQuantity
	}
	priority := 100
	if req.Priority != nil {
		priority = *req.Priority
	}
	stackable := true
	if req.Stackable != nil {
		stackable = *req.Stackable
	}

	entity := &promotiondomain.Promotion{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		Kind:           req.Kind,
		Magnitude:      req.Magnitude,
		Products:       datatypes.NewJSONSlice(trimAll(req.Products)),
		Categories:     datatypes.NewJSONSlice(trimAll(req.Categories)),
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		MinQuantity:    minQuantity,
		Segments:       datatypes.NewJSONSlice(trimAll(req.Segments)),
		Priority:       priority,
		Stackable:      stackable,
		ExclusionGroup: strings.TrimSpace(req.ExclusionGroup),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, promotiondomain.ErrDuplicateID
		}
		return nil, err
	}

	// The write must be visible to the next resolution.
	s.registry.Invalidate(ctx, *entity)

	s.log.Info("promotion created",
		zap.String("promotion_id", entity.ID),
		zap.String("kind", string(entity.Kind)),
		zap.Int("priority", entity.Priority),
		zap.Bool("stackable", entity.Stackable),
	)
	return entity, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
