package repository

import (
	"context"

	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *pricedomain.PriceRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO price_records (
			id, product_id, category, currency, base_amount,
			effective_from, effective_until, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.ProductID,
		p.Category,
		p.Currency,
		p.BaseAmount,
		p.EffectiveFrom,
		p.EffectiveUntil,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByProduct(ctx context.Context, db *gorm.DB, productID string) (*pricedomain.PriceRecord, error) {
	var p pricedomain.PriceRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, category, currency, base_amount,
		 effective_from, effective_until, version, created_at, updated_at
		 FROM price_records WHERE product_id = ?`,
		productID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) UpdateVersioned(ctx context.Context, db *gorm.DB, p *pricedomain.PriceRecord, expectedVersion int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE price_records
		 SET category = ?, currency = ?, base_amount = ?,
		     effective_from = ?, effective_until = ?,
		     version = version + 1, updated_at = ?
		 WHERE product_id = ? AND version = ?`,
		p.Category,
		p.Currency,
		p.BaseAmount,
		p.EffectiveFrom,
		p.EffectiveUntil,
		p.UpdatedAt,
		p.ProductID,
		expectedVersion,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
