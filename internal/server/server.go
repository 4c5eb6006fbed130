package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/pricelist/internal/config"
	"github.com/smallbiznis/pricelist/internal/observability"
	obsmiddleware "github.com/smallbiznis/pricelist/internal/observability/logger"
	obstracing "github.com/smallbiznis/pricelist/internal/observability/tracing"
	"github.com/smallbiznis/pricelist/internal/price"
	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	"github.com/smallbiznis/pricelist/internal/promotion"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"github.com/smallbiznis/pricelist/internal/resolution"
	resolutiondomain "github.com/smallbiznis/pricelist/internal/resolution/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	price.Module,
	promotion.Module,
	resolution.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// corsMiddleware applies the origin allowlist from ALLOWED_ORIGINS.
// Credentials are only shared with an explicit allowlist, never with the
// wildcard.
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	return cors.New(corsCfg)
}

func registerGin(cfg config.Config, obsCfg observability.Config) *gin.Engine {
	return NewEngine(cfg, obsCfg)
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	priceSvc      pricedomain.Service
	promotionSvc  promotiondomain.Service
	resolutionSvc resolutiondomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	PriceSvc      pricedomain.Service
	PromotionSvc  promotiondomain.Service
	ResolutionSvc resolutiondomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		priceSvc:      p.PriceSvc,
		promotionSvc:  p.PromotionSvc,
		resolutionSvc: p.ResolutionSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.Health)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/prices", s.UpsertPrice)
		v1.GET("/prices/:product_id", s.GetPrice)
		v1.POST("/prices/query", s.QueryPrice)
		v1.POST("/promotions", s.CreatePromotion)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     s.cfg.AppName,
		"version":     s.cfg.AppVersion,
		"environment": s.cfg.Environment,
	})
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
