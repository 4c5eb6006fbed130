package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	promotionrepository "github.com/smallbiznis/pricelist/internal/promotion/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&promotiondomain.Promotion{}))

	r := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: promotionrepository.Provide(),
	})
	return r, db
}

func seedPromotion(t *testing.T, db *gorm.DB, id string, products, categories []string) {
	t.Helper()
	err := db.Create(&promotiondomain.Promotion{
		ID:          id,
		Kind:        promotiondomain.PercentOff,
		Magnitude:   decimal.RequireFromString("10"),
		Products:    datatypes.NewJSONSlice(products),
		Categories:  datatypes.NewJSONSlice(categories),
		MinQuantity: 1,
		Priority:    100,
		Stackable:   true,
	}).Error
	require.NoError(t, err)
}

func TestCandidatesFor_PopulatesLazily(t *testing.T) {
	r, db := newRegistry(t)
	ctx := context.Background()

	seedPromotion(t, db, "promo-global", nil, nil)
	seedPromotion(t, db, "promo-books", nil, []string{"books"})
	seedPromotion(t, db, "promo-other", []string{"prod-9"}, nil)

	got, err := r.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "promo-books", got[0].ID)
	assert.Equal(t, "promo-global", got[1].ID)

	toys, err := r.CandidatesFor(ctx, "prod-1", "toys")
	require.NoError(t, err)
	require.Len(t, toys, 1)
	assert.Equal(t, "promo-global", toys[0].ID)
}

func TestCandidatesFor_ServesFromSnapshotUntilInvalidated(t *testing.T) {
	r, db := newRegistry(t)
	ctx := context.Background()

	got, err := r.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	assert.Empty(t, got)

	// A write the registry was not told about stays invisible.
	seedPromotion(t, db, "promo-books", nil, []string{"books"})
	got, err = r.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	assert.Empty(t, got)

	r.Invalidate(ctx, promotiondomain.Promotion{
		ID:         "promo-books",
		Categories: datatypes.NewJSONSlice([]string{"books"}),
	})

	got, err = r.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "promo-books", got[0].ID)
}

func TestInvalidate_OnlyDropsAffectedBuckets(t *testing.T) {
	r, db := newRegistry(t)
	ctx := context.Background()

	_, err := r.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	_, err = r.CandidatesFor(ctx, "prod-2", "toys")
	require.NoError(t, err)

	seedPromotion(t, db, "promo-books", nil, []string{"books"})
	seedPromotion(t, db, "promo-toys", nil, []string{"toys"})

	r.Invalidate(ctx, promotiondomain.Promotion{
		ID:         "promo-books",
		Categories: datatypes.NewJSONSlice([]string{"books"}),
	})

	books, err := r.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	require.Len(t, books, 1)

	// The toys bucket was untouched, so the unannounced write is still
	// invisible there.
	toys, err := r.CandidatesFor(ctx, "prod-2", "toys")
	require.NoError(t, err)
	assert.Empty(t, toys)
}

func TestInvalidateAll(t *testing.T) {
	r, db := newRegistry(t)
	ctx := context.Background()

	_, err := r.CandidatesFor(ctx, "prod-1", "toys")
	require.NoError(t, err)

	seedPromotion(t, db, "promo-global", nil, nil)
	r.InvalidateAll(ctx)

	got, err := r.CandidatesFor(ctx, "prod-1", "toys")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestCandidatesFor_ConcurrentReaders(t *testing.T) {
	r, db := newRegistry(t)
	ctx := context.Background()

	seedPromotion(t, db, "promo-global", nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			product := fmt.Sprintf("prod-%d", i%4)
			for j := 0; j < 50; j++ {
				got, err := r.CandidatesFor(ctx, product, "")
				assert.NoError(t, err)
				assert.Len(t, got, 1)
			}
		}()
	}
	wg.Wait()
}
