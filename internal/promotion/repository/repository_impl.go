package repository

import (
	"context"

	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() promotiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *promotiondomain.Promotion) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO promotions (
			id, name, kind, magnitude, products, categories,
			starts_at, ends_at, min_quantity, segments,
			priority, stackable, exclusion_group, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Kind,
		p.Magnitude,
		p.Products,
		p.Categories,
		p.StartsAt,
		p.EndsAt,
		p.MinQuantity,
		p.Segments,
		p.Priority,
		p.Stackable,
		p.ExclusionGroup,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

// ListForTarget scans the full promotion set and filters in memory. Target
// sets live in JSON columns, so membership cannot be pushed into portable
// SQL; promotion volumes are small enough (hundreds) that a scan is fine,
// and results are cached per target by the registry anyway.
func (r *repo) ListForTarget(ctx context.Context, db *gorm.DB, productID, category string) ([]promotiondomain.Promotion, error) {
	var items []promotiondomain.Promotion
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, kind, magnitude, products, categories,
		 starts_at, ends_at, min_quantity, segments,
		 priority, stackable, exclusion_group, created_at, updated_at
		 FROM promotions ORDER BY priority ASC, id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	matched := make([]promotiondomain.Promotion, 0, len(items))
	for _, p := range items {
		if p.Targets(productID, category) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}
