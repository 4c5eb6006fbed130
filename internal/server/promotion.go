package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
)

type createPromotionRequest struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Kind           promotiondomain.Kind `json:"kind"`
	Magnitude      decimal.Decimal      `json:"magnitude"`
	Products       []string             `json:"products"`
	Categories     []string             `json:"categories"`
	StartsAt       *time.Time           `json:"starts_at"`
	EndsAt         *time.Time           `json:"ends_at"`
	MinQuantity    *int64               `json:"min_quantity"`
	Segments       []string             `json:"segments"`
	Priority       *int                 `json:"priority"`
	Stackable      *bool                `json:"stackable"`
	ExclusionGroup string               `json:"exclusion_group"`
}

func (s *Server) CreatePromotion(c *gin.Context) {
	var req createPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Create(c.Request.Context(), promotiondomain.CreateRequest{
		ID:             strings.TrimSpace(req.ID),
		Name:           strings.TrimSpace(req.Name),
		Kind:           req.Kind,
		Magnitude:      req.Magnitude,
		Products:       req.Products,
		Categories:     req.Categories,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		MinQuantity:    req.MinQuantity,
		Segments:       req.Segments,
		Priority:       req.Priority,
		Stackable:      req.Stackable,
		ExclusionGroup: strings.TrimSpace(req.ExclusionGroup),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
