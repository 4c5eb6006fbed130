package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Promotion, error)
}

type CreateRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Kind           Kind            `json:"kind"`
	Magnitude      decimal.Decimal `json:"magnitude"`
	Products       []string        `json:"products"`
	Categories     []string        `json:"categories"`
	StartsAt       *time.Time      `json:"starts_at"`
	EndsAt         *time.Time      `json:"ends_at"`
	MinQuantity    *int64          `json:"min_quantity"`
	Segments       []string        `json:"segments"`
	Priority       *int            `json:"priority"`
	Stackable      *bool           `json:"stackable"`
	ExclusionGroup string          `json:"exclusion_group"`
}

var (
	ErrInvalidKind        = errors.New("invalid_kind")
	ErrInvalidMagnitude   = errors.New("invalid_magnitude")
	ErrInvalidWindow      = errors.New("invalid_window")
	ErrInvalidMinQuantity = errors.New("invalid_min_quantity")
	ErrDuplicateID        = errors.New("duplicate_id")
)
