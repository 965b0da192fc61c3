package dto

import "net/http"

// Error codes returned in the envelope. Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown     = "ERR_UNKNOWN"
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeValidationLength   = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
)

// Checkout and catalog error codes
const (
	ErrCodeInvalidSelection = "ERR_INVALID_SELECTION"
	ErrCodeMissingEmail     = "ERR_MISSING_EMAIL"
	ErrCodeItemsNotFound    = "ERR_ITEMS_NOT_FOUND"
	ErrCodeProcessor        = "ERR_PROCESSOR"
	ErrCodeUploadFailed     = "ERR_UPLOAD_FAILED"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInvalidSelection: http.StatusBadRequest,
	ErrCodeMissingEmail:     http.StatusBadRequest,
	ErrCodeItemsNotFound:    http.StatusNotFound,
	ErrCodeProcessor:        http.StatusInternalServerError,
	ErrCodeUploadFailed:     http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to envelope codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"ALREADY_EXISTS":    ErrCodeAlreadyExists,
	"INVALID_INPUT":     ErrCodeInvalidInput,
	"UNAUTHORIZED":      ErrCodeUnauthorized,
	"FORBIDDEN":         ErrCodeForbidden,
	"UNAVAILABLE":       ErrCodeUnavailable,
	"INVALID_SELECTION": ErrCodeInvalidSelection,
	"MISSING_EMAIL":     ErrCodeMissingEmail,
	"ITEMS_NOT_FOUND":   ErrCodeItemsNotFound,
	"PROCESSOR_ERROR":   ErrCodeProcessor,
	"UPLOAD_FAILED":     ErrCodeUploadFailed,
	"INVALID_SIGNATURE": ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a domain error code to the envelope format.
// Codes already in that format, or unknown ones, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
