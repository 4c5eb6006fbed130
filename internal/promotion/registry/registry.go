package registry

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	obsmetrics "github.com/smallbiznis/pricelist/internal/observability/metrics"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Registry is the process-wide cache of candidate promotions per target.
// Buckets are populated lazily from the repository on first miss and
// invalidated on promotion writes. The whole bucket map is an immutable
// snapshot behind an atomic.Value: readers load it without locking and can
// never observe a partially rebuilt bucket; a single writer builds a new
// map and swaps it in. The registry holds no authoritative state and is
// rebuildable from the store at any time.
type Registry struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    promotiondomain.Repository
	metrics *obsmetrics.Metrics

	mu       sync.Mutex   // serializes writers
	snapshot atomic.Value // holds buckets
}

type bucket struct {
	productID  string
	category   string
	promotions []promotiondomain.Promotion // never mutated after the swap
}

type buckets map[string]bucket

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    promotiondomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func New(p Params) *Registry {
	r := &Registry{
		db:      p.DB,
		log:     p.Log.Named("promotion.registry"),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
	r.snapshot.Store(buckets{})
	return r
}

// CandidatesFor returns the cached candidate promotions for the target,
// querying the store on a miss. The returned slice is shared with the
// snapshot and must be treated as read-only.
func (r *Registry) CandidatesFor(ctx context.Context, productID, category string) ([]promotiondomain.Promotion, error) {
	key := bucketKey(productID, category)

	snap := r.snapshot.Load().(buckets)
	if b, ok := snap[key]; ok {
		return b.promotions, nil
	}

	return r.populate(ctx, key, productID, category)
}

func (r *Registry) populate(ctx context.Context, key, productID, category string) ([]promotiondomain.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Another writer may have filled the bucket while we waited.
	snap := r.snapshot.Load().(buckets)
	if b, ok := snap[key]; ok {
		return b.promotions, nil
	}

	promotions, err := r.repo.ListForTarget(ctx, r.db, productID, category)
	if err != nil {
		return nil, err
	}

	next := make(buckets, len(snap)+1)
	for k, b := range snap {
		next[k] = b
	}
	next[key] = bucket{productID: productID, category: category, promotions: promotions}
	r.snapshot.Store(next)

	r.metrics.RecordRegistryRebuild(ctx, "miss")
	r.log.Debug("registry bucket populated",
		zap.String("product_id", productID),
		zap.String("category", category),
		zap.Int("candidates", len(promotions)),
	)
	return promotions, nil
}

// Invalidate drops every bucket the promotion's target sets could affect.
// Affected buckets repopulate lazily on the next lookup.
func (r *Registry) Invalidate(ctx context.Context, p promotiondomain.Promotion) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshot.Load().(buckets)
	next := make(buckets, len(snap))
	dropped := 0
	for k, b := range snap {
		if p.Targets(b.productID, b.category) {
			dropped++
			continue
		}
		next[k] = b
	}
	if dropped == 0 {
		return
	}
	r.snapshot.Store(next)

	r.metrics.RecordRegistryRebuild(ctx, "invalidate")
	r.log.Debug("registry buckets invalidated",
		zap.String("promotion_id", p.ID),
		zap.Int("dropped", dropped),
	)
}

// InvalidateAll drops the whole snapshot.
func (r *Registry) InvalidateAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Store(buckets{})
	r.metrics.RecordRegistryRebuild(ctx, "invalidate_all")
}

func bucketKey(productID, category string) string {
	return strings.TrimSpace(productID) + "|" + strings.TrimSpace(category)
}
