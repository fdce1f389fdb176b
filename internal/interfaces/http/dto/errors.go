package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Unmapped codes default to 422: the request was well formed but a
// business rule rejected it.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	// Input errors -> 400 Bad Request
	"INVALID_INPUT":          http.StatusBadRequest,
	"EMPTY_CART":             http.StatusBadRequest,
	"EMPTY_INVOICE":          http.StatusBadRequest,
	"EMPTY_QUOTATION":        http.StatusBadRequest,
	"INVALID_LINE":           http.StatusBadRequest,
	"INVALID_ORDER_TYPE":     http.StatusBadRequest,
	"INVALID_TABLE":          http.StatusBadRequest,
	"INVALID_CUSTOMER":       http.StatusBadRequest,
	"INVALID_ORDER_NUMBER":   http.StatusBadRequest,
	"INVALID_INVOICE_NUMBER": http.StatusBadRequest,

	// Conflicts -> 409
	"ALREADY_EXISTS":       http.StatusConflict,
	"DUPLICATE_ENTRY":      http.StatusConflict,
	"ALREADY_PAID":         http.StatusConflict,
	"ALREADY_CONVERTED":    http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"PREREQUISITE_NOT_MET":   http.StatusUnprocessableEntity,
	"NO_ACTIVE_ORDERS":       http.StatusUnprocessableEntity,
	"NO_OUTSTANDING_INVOICE": http.StatusUnprocessableEntity,
	"EXCEEDS_OUTSTANDING":    http.StatusUnprocessableEntity,
	"SETTLEMENT_FAILED":      http.StatusUnprocessableEntity,
	"LINK_VALIDATION":        http.StatusUnprocessableEntity,

	// Server side configuration problems -> 500
	"ACCOUNT_CONFIGURATION": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
