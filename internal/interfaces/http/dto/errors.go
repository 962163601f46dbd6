package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeServiceUnavailable is used when a delegated service is disabled or saturated
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeSlugTaken           = "ERR_SLUG_TAKEN"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInvalidTransition is used for status writes the state machine forbids
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodeCampaignClosed is used when a campaign no longer takes orders
	ErrCodeCampaignClosed = "ERR_CAMPAIGN_CLOSED"
	// ErrCodeGarmentUnavailable is used for inactive garments or colors/sizes not offered
	ErrCodeGarmentUnavailable = "ERR_GARMENT_UNAVAILABLE"
	// ErrCodeAlreadyPaid is used when a payment was already collected
	ErrCodeAlreadyPaid = "ERR_ALREADY_PAID"
	// ErrCodeNoOrders is used when a campaign has nothing to pay for
	ErrCodeNoOrders = "ERR_NO_ORDERS"
)

// Payment error codes
const (
	ErrCodePaymentFailed   = "ERR_PAYMENT_FAILED"
	ErrCodePaymentMismatch = "ERR_PAYMENT_MISMATCH"
)

// Input error codes
const (
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput     = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON      = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge  = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnsupportedMedia = "ERR_UNSUPPORTED_MEDIA"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeSlugTaken:           http.StatusConflict,

	// Business rule errors
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:  http.StatusUnprocessableEntity,
	ErrCodeCampaignClosed:     http.StatusConflict,
	ErrCodeGarmentUnavailable: http.StatusUnprocessableEntity,
	ErrCodeAlreadyPaid:        http.StatusConflict,
	ErrCodeNoOrders:           http.StatusUnprocessableEntity,

	// Payment errors
	ErrCodePaymentFailed:   http.StatusPaymentRequired,
	ErrCodePaymentMismatch: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedMedia: http.StatusUnsupportedMediaType,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unmapped INVALID_* field codes are input errors; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// DomainErrorStatus returns the status for a domain error code. Domain codes
// nobody mapped are business rule violations, never server faults.
func DomainErrorStatus(code string) int {
	status := GetHTTPStatus(code)
	if status == http.StatusInternalServerError && code != ErrCodeInternal && code != ErrCodeUnknown {
		return http.StatusUnprocessableEntity
	}
	return status
}

// DomainErrorCodeMapping maps domain error codes to the API codes above
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"INVALID_TRANSITION":    ErrCodeInvalidTransition,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"PASSWORD_HASH_ERROR":   ErrCodeInternal,
	"SERVICE_UNAVAILABLE":   ErrCodeServiceUnavailable,
	"INVALID_CREDENTIALS":   ErrCodeInvalidCredentials,
	"ACCOUNT_INACTIVE":      ErrCodeInvalidCredentials,
	"TOKEN_EXPIRED":         ErrCodeTokenExpired,
	"TOKEN_INVALID":         ErrCodeTokenInvalid,
	"TOKEN_REVOKED":         ErrCodeTokenRevoked,
	"SLUG_TAKEN":            ErrCodeSlugTaken,
	"CAMPAIGN_CLOSED":       ErrCodeCampaignClosed,
	"GARMENT_UNAVAILABLE":   ErrCodeGarmentUnavailable,
	"GARMENT_CONFIG_IN_USE": ErrCodeConflict,
	"ALREADY_PAID":          ErrCodeAlreadyPaid,
	"NO_ORDERS":             ErrCodeNoOrders,
	"PAYMENT_FAILED":        ErrCodePaymentFailed,
	"PAYMENT_MISMATCH":      ErrCodePaymentMismatch,
	"QUOTE_MISMATCH":        ErrCodeConflict,
	"FILE_TOO_LARGE":        ErrCodeRequestTooLarge,
	"UNSUPPORTED_FILE_TYPE": ErrCodeUnsupportedMedia,
	"DUPLICATE_LOCATION":    ErrCodeInvalidInput,
	"NO_ITEMS":              ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes that are already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
