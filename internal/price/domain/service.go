package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Upsert creates the base price for a product or, when ExpectedVersion
	// is set, replaces it under optimistic concurrency.
	Upsert(ctx context.Context, req UpsertRequest) (*PriceRecord, error)
	// GetAt returns the price record effective at the given instant.
	// ErrNotFound covers both a missing record and one queried outside its
	// effective window.
	GetAt(ctx context.Context, productID string, at time.Time) (*PriceRecord, error)
}

type UpsertRequest struct {
	ProductID       string          `json:"product_id"`
	Category        string          `json:"category"`
	Currency        string          `json:"currency"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	EffectiveFrom   *time.Time      `json:"effective_from"`
	EffectiveUntil  *time.Time      `json:"effective_until"`
	ExpectedVersion *int64          `json:"expected_version"`
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrVersionConflict   = errors.New("version_conflict")
	ErrInvalidProduct    = errors.New("invalid_product")
	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrInvalidBaseAmount = errors.New("invalid_base_amount")
	ErrInvalidWindow     = errors.New("invalid_window")
	ErrInvalidVersion    = errors.New("invalid_version")
)
