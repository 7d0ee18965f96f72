package dto

import (
	"net/http"
	"strings"
)

// Common error code constants used by the HTTP layer itself
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeUnauthorized is used when authentication is required but missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed here fall back to the prefix rules in GetHTTPStatus.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeRateLimited:   http.StatusTooManyRequests,
	"OBJECT_NOT_FOUND":   http.StatusNotFound,
	"ITEM_NOT_FOUND":     http.StatusNotFound,
	"INVALID_TOKEN":      http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,

	// Login can fail on account state rather than credentials
	"ACCOUNT_LOCKED":   http.StatusForbidden,
	"ACCOUNT_DISABLED": http.StatusForbidden,

	// Uniqueness and optimistic locking conflicts
	"ALREADY_EXISTS":           http.StatusConflict,
	"EMAIL_ALREADY_REGISTERED": http.StatusConflict,
	"SKU_ALREADY_EXISTS":       http.StatusConflict,
	"SLUG_ALREADY_EXISTS":      http.StatusConflict,
	"DUPLICATE_REVIEW":         http.StatusConflict,
	"DUPLICATE_PRODUCT":        http.StatusConflict,
	"DUPLICATE_CHECKOUT":       http.StatusConflict,
	"CONCURRENCY_CONFLICT":     http.StatusConflict,

	// Business rule violations
	"INVALID_STATE":         http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":    http.StatusUnprocessableEntity,
	"CART_EMPTY":            http.StatusUnprocessableEntity,
	"CART_CHECKED_OUT":      http.StatusUnprocessableEntity,
	"PRODUCT_UNAVAILABLE":   http.StatusUnprocessableEntity,
	"CATEGORY_HAS_CHILDREN": http.StatusUnprocessableEntity,
	"CATEGORY_HAS_PRODUCTS": http.StatusUnprocessableEntity,
	"MAX_DEPTH_EXCEEDED":    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// INVALID_* codes default to 400, everything unknown to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
