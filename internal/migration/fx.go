package migration

import (
	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module creates the core tables on startup so the service is usable out of
// the box for local and self-hosted environments.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		return conn.AutoMigrate(
			&pricedomain.PriceRecord{},
			&promotiondomain.Promotion{},
		)
	}),
)
