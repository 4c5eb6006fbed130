package promotion

import (
	"github.com/smallbiznis/pricelist/internal/promotion/registry"
	"github.com/smallbiznis/pricelist/internal/promotion/repository"
	"github.com/smallbiznis/pricelist/internal/promotion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promotion.service",
	fx.Provide(repository.Provide),
	fx.Provide(registry.New),
	fx.Provide(service.New),
)
