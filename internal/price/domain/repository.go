package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *PriceRecord) error
	FindByProduct(ctx context.Context, db *gorm.DB, productID string) (*PriceRecord, error)
	// UpdateVersioned writes the record iff the stored version still equals
	// expectedVersion, bumping the version by one. It reports whether the
	// write happened; false means the record moved underneath the caller.
	UpdateVersioned(ctx context.Context, db *gorm.DB, record *PriceRecord, expectedVersion int64) (bool, error)
}
