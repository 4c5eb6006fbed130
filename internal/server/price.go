package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	resolutiondomain "github.com/smallbiznis/pricelist/internal/resolution/domain"
)

type upsertPriceRequest struct {
	ProductID       string          `json:"product_id"`
	Category        string          `json:"category"`
	Currency        string          `json:"currency"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	EffectiveFrom   *time.Time      `json:"effective_from"`
	EffectiveUntil  *time.Time      `json:"effective_until"`
	ExpectedVersion *int64          `json:"expected_version"`
}

func (s *Server) UpsertPrice(c *gin.Context) {
	var req upsertPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceSvc.Upsert(c.Request.Context(), pricedomain.UpsertRequest{
		ProductID:       strings.TrimSpace(req.ProductID),
		Category:        strings.TrimSpace(req.Category),
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		BaseAmount:      req.BaseAmount,
		EffectiveFrom:   req.EffectiveFrom,
		EffectiveUntil:  req.EffectiveUntil,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{"data": resp}
	// Echo the promotion-aware view so the writer sees what buyers will.
	// A record effective only in the future has no current view; that is
	// not a write failure.
	if resolved, err := s.resolutionSvc.Resolve(c.Request.Context(), resp.ProductID, resolutiondomain.Query{
		ApplyPromotions: true,
	}); err == nil {
		body["resolved"] = resolved
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) GetPrice(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("product_id"))

	apply, err := parseOptionalBool(c.Query("apply_promotions"))
	if err != nil {
		AbortWithError(c, newValidationError("apply_promotions", "invalid_bool", "must be a boolean"))
		return
	}
	quantity, err := parseOptionalInt64(c.Query("quantity"))
	if err != nil {
		AbortWithError(c, newValidationError("quantity", "invalid_int", "must be an integer"))
		return
	}
	at, err := parseOptionalTime(c.Query("at"))
	if err != nil {
		AbortWithError(c, newValidationError("at", "invalid_time", "must be an RFC3339 timestamp"))
		return
	}

	query := resolutiondomain.Query{
		Segment:         strings.TrimSpace(c.Query("segment")),
		Currency:        strings.ToUpper(strings.TrimSpace(c.Query("currency"))),
		ApplyPromotions: true,
	}
	if apply != nil {
		query.ApplyPromotions = *apply
	}
	if quantity != nil {
		query.Quantity = *quantity
	}
	if at != nil {
		query.At = *at
	}

	resp, err := s.resolutionSvc.Resolve(c.Request.Context(), productID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type queryPriceRequest struct {
	ProductID         string     `json:"product_id"`
	At                *time.Time `json:"at"`
	Quantity          int64      `json:"quantity"`
	Segment           string     `json:"segment"`
	Currency          string     `json:"currency"`
	ApplyPromotions   *bool      `json:"apply_promotions"`
	IncludePromotions *bool      `json:"include_promotions"`
}

func (s *Server) QueryPrice(c *gin.Context) {
	var req queryPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	query := resolutiondomain.Query{
		Quantity:        req.Quantity,
		Segment:         strings.TrimSpace(req.Segment),
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		ApplyPromotions: true,
	}
	if req.At != nil {
		query.At = *req.At
	}
	// include_promotions is the older name for the same toggle.
	if req.IncludePromotions != nil {
		query.ApplyPromotions = *req.IncludePromotions
	}
	if req.ApplyPromotions != nil {
		query.ApplyPromotions = *req.ApplyPromotions
	}

	resp, err := s.resolutionSvc.Resolve(c.Request.Context(), strings.TrimSpace(req.ProductID), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
