package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	pricedomain "github.com/smallbiznis/pricelist/internal/price/domain"
	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

// ErrorHandlingMiddleware converts errors recorded on the gin context into
// the JSON error envelope. Handlers report failures through AbortWithError
// and never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, pricedomain.ErrVersionConflict):
		return http.StatusConflict, errorPayload{
			Type:    "version_conflict",
			Message: "expected version does not match the stored record",
		}
	case errors.Is(err, promotiondomain.ErrDuplicateID):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "promotion id already exists",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isPriceValidationError(err), isPromotionValidationError(err):
		return true
	default:
		return false
	}
}

func isPriceValidationError(err error) bool {
	switch {
	case errors.Is(err, pricedomain.ErrInvalidProduct),
		errors.Is(err, pricedomain.ErrInvalidCurrency),
		errors.Is(err, pricedomain.ErrInvalidBaseAmount),
		errors.Is(err, pricedomain.ErrInvalidWindow),
		errors.Is(err, pricedomain.ErrInvalidVersion):
		return true
	default:
		return false
	}
}

func isPromotionValidationError(err error) bool {
	switch {
	case errors.Is(err, promotiondomain.ErrInvalidKind),
		errors.Is(err, promotiondomain.ErrInvalidMagnitude),
		errors.Is(err, promotiondomain.ErrInvalidWindow),
		errors.Is(err, promotiondomain.ErrInvalidMinQuantity):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_product":
		return "product_id"
	case "invalid_currency":
		return "currency"
	case "invalid_base_amount":
		return "base_amount"
	case "invalid_window":
		return "effective_from"
	case "invalid_version":
		return "expected_version"
	case "invalid_kind":
		return "kind"
	case "invalid_magnitude":
		return "magnitude"
	case "invalid_min_quantity":
		return "min_quantity"
	default:
		return "request"
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pricedomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

// classifyErrorForLog maps a handler error to the (type, code) pair attached
// to the access log entry.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	switch {
	case asValidationErrors(err) != nil, isValidationError(err):
		return "validation_error", err.Error()
	case errors.Is(err, pricedomain.ErrVersionConflict):
		return "version_conflict", err.Error()
	case errors.Is(err, promotiondomain.ErrDuplicateID):
		return "conflict", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	default:
		return "internal_error", err.Error()
	}
}
