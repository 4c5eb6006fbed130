package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, promotion *Promotion) error
	// ListForTarget returns promotions whose target sets could include the
	// product. This is the coarse pre-filter; eligibility is decided later.
	ListForTarget(ctx context.Context, db *gorm.DB, productID, category string) ([]Promotion, error)
}
