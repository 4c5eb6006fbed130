package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricelist/internal/clock"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	promotionregistry "github.com/smallbiznis/pricelist/internal/promotion/registry"
	promotionrepository "github.com/smallbiznis/pricelist/internal/promotion/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newPromotionService(t *testing.T) (promotiondomain.Service, *promotionregistry.Registry) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&promotiondomain.Promotion{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := promotionrepository.Provide()
	registry := promotionregistry.New(promotionregistry.Params{
		DB:   db,
		Log:  logger,
		Repo: repo,
	})
	svc := New(Params{
		DB:       db,
		Log:      logger,
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)),
		Repo:     repo,
		Registry: registry,
	})
	return svc, registry
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestCreate_AppliesDefaults(t *testing.T) {
	svc, _ := newPromotionService(t)

	got, err := svc.Create(context.Background(), promotiondomain.CreateRequest{
		Name:      "Spring sale",
		Kind:      promotiondomain.PercentOff,
		Magnitude: decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, int64(1), got.MinQuantity)
	assert.Equal(t, 100, got.Priority)
	assert.True(t, got.Stackable)
	assert.Empty(t, got.ExclusionGroup)
}

func TestCreate_DuplicateID(t *testing.T) {
	svc, _ := newPromotionService(t)
	ctx := context.Background()

	req := promotiondomain.CreateRequest{
		ID:        "promo-1",
		Kind:      promotiondomain.PercentOff,
		Magnitude: decimal.RequireFromString("10"),
	}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, promotiondomain.ErrDuplicateID)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newPromotionService(t)
	ctx := context.Background()

	starts := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	ends := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     promotiondomain.CreateRequest
		wantErr error
	}{
		{
			name: "unknown kind",
			req: promotiondomain.CreateRequest{
				Kind:      promotiondomain.Kind("BOGO"),
				Magnitude: decimal.RequireFromString("10"),
			},
			wantErr: promotiondomain.ErrInvalidKind,
		},
		{
			name: "percent above 100",
			req: promotiondomain.CreateRequest{
				Kind:      promotiondomain.PercentOff,
				Magnitude: decimal.RequireFromString("150"),
			},
			wantErr: promotiondomain.ErrInvalidMagnitude,
		},
		{
			name: "negative amount off",
			req: promotiondomain.CreateRequest{
				Kind:      promotiondomain.AmountOff,
				Magnitude: decimal.RequireFromString("-5"),
			},
			wantErr: promotiondomain.ErrInvalidMagnitude,
		},
		{
			name: "negative fixed price",
			req: promotiondomain.CreateRequest{
				Kind:      promotiondomain.FixedPrice,
				Magnitude: decimal.RequireFromString("-1"),
			},
			wantErr: promotiondomain.ErrInvalidMagnitude,
		},
		{
			name: "reversed window",
			req: promotiondomain.CreateRequest{
				Kind:      promotiondomain.PercentOff,
				Magnitude: decimal.RequireFromString("10"),
				StartsAt:  &starts,
				EndsAt:    &ends,
			},
			wantErr: promotiondomain.ErrInvalidWindow,
		},
		{
			name: "zero min quantity",
			req: promotiondomain.CreateRequest{
				Kind:        promotiondomain.PercentOff,
				Magnitude:   decimal.RequireFromString("10"),
				MinQuantity: int64Ptr(0),
			},
			wantErr: promotiondomain.ErrInvalidMinQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_InvalidatesRegistry(t *testing.T) {
	svc, registry := newPromotionService(t)
	ctx := context.Background()

	// Warm the bucket before any promotion exists.
	candidates, err := registry.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	assert.Empty(t, candidates)

	_, err = svc.Create(ctx, promotiondomain.CreateRequest{
		ID:         "promo-books",
		Kind:       promotiondomain.PercentOff,
		Magnitude:  decimal.RequireFromString("10"),
		Categories: []string{"books"},
		Priority:   intPtr(1),
	})
	require.NoError(t, err)

	// The write dropped the bucket; the next read sees the promotion.
	candidates, err = registry.CandidatesFor(ctx, "prod-1", "books")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "promo-books", candidates[0].ID)
}
