package dto

import (
	"net/http"
	"strings"
)

// Codes produced by the HTTP layer itself. Domain codes pass through as-is.
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeTokenRevoked    = "TOKEN_REVOKED"
	CodeRateLimited     = "RATE_LIMITED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Codes not
// listed fall back to the suffix rules in GetHTTPStatus.
var ErrorCodeHTTPStatus = map[string]int{
	CodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	CodeValidation:       http.StatusBadRequest,
	CodeBadRequest:       http.StatusBadRequest,
	"INVALID_INPUT":      http.StatusBadRequest,
	"CONSENT_REQUIRED":   http.StatusBadRequest,
	"DOCUMENT_TOO_LARGE": http.StatusBadRequest,

	// Auth errors
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeTokenExpired:       http.StatusUnauthorized,
	CodeTokenInvalid:       http.StatusUnauthorized,
	CodeTokenRevoked:       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":    http.StatusUnauthorized,
	"INVALID_CREDENTIALS":  http.StatusUnauthorized,
	"INVALID_RESUME_TOKEN": http.StatusUnauthorized,
	"ACCOUNT_INACTIVE":     http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	"ACCOUNT_LOCKED":       http.StatusForbidden,
	"ACCOUNT_DISABLED":     http.StatusForbidden,
	"NOT_CASE_OWNER":       http.StatusForbidden,
	"CANNOT_DISABLE_SELF":  http.StatusForbidden,
	"CANNOT_CHANGE_SELF":   http.StatusForbidden,

	// Resource errors
	CodeNotFound:              http.StatusNotFound,
	"ALREADY_EXISTS":          http.StatusConflict,
	"CONCURRENT_MODIFICATION": http.StatusConflict,
	"IDEMPOTENCY_IN_PROGRESS": http.StatusConflict,
	"EMAIL_TAKEN":             http.StatusConflict,
	"ALREADY_ASSIGNED":        http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"INVALID_TRANSITION": http.StatusUnprocessableEntity,

	CodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	CodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted codes are classified by convention: *_NOT_FOUND is 404,
// *_EXISTS and *_TAKEN are 409, INVALID_* and *_REQUIRED are 400, and any
// other domain rule violation is 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_EXISTS"), strings.HasSuffix(code, "_TAKEN"):
		return http.StatusConflict
	case strings.HasPrefix(code, "INVALID_"), strings.HasSuffix(code, "_REQUIRED"):
		return http.StatusBadRequest
	case code == "":
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}
