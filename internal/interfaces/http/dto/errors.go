package dto

import (
	"errors"
	"net/http"

	"github.com/schoolfees/backend/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStorage is used when the database rejected or lost a write
	ErrCodeStorage = "ERR_STORAGE"
	// ErrCodeAuditWrite is used when a blocking audit row could not be written
	ErrCodeAuditWrite = "ERR_AUDIT_WRITE"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
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
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeReferential is used when a write would orphan or reference a missing row
	ErrCodeReferential = "ERR_REFERENTIAL"
)

// Business rule error codes
const (
	ErrCodePrecondition = "ERR_PRECONDITION"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:    http.StatusInternalServerError,
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeStorage:    http.StatusInternalServerError,
	ErrCodeAuditWrite: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeReferential:         http.StatusConflict,

	ErrCodePrecondition: http.StatusUnprocessableEntity,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for a given error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// KindErrorCode is the fallback code for each domain error kind
var KindErrorCode = map[shared.ErrorKind]string{
	shared.KindValidation:   ErrCodeValidation,
	shared.KindPrecondition: ErrCodePrecondition,
	shared.KindConflict:     ErrCodeConflict,
	shared.KindReferential:  ErrCodeReferential,
	shared.KindNotFound:     ErrCodeNotFound,
	shared.KindAuditWrite:   ErrCodeAuditWrite,
	shared.KindStorage:      ErrCodeStorage,
}

// DomainErrorCodeMapping maps domain codes that have a more specific
// public code than their kind's fallback
var DomainErrorCodeMapping = map[string]string{
	"OPTIMISTIC_LOCK_ERROR": ErrCodeConcurrencyConflict,
	"FEE_ALREADY_PAID":      ErrCodeInvalidState,
	"FEE_NOT_PAID":          ErrCodeInvalidState,
	"NOTHING_TO_WAIVE":      ErrCodeInvalidState,
	"NOTHING_TO_PAY":        ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain code to its ERR_* form. The HTTP
// status always follows the kind, so a mapped code never changes it.
func NormalizeErrorCode(kind shared.ErrorKind, code string) string {
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	if fallback, ok := KindErrorCode[kind]; ok {
		return fallback
	}
	return ErrCodeInternal
}

// KindHTTPStatus maps each domain error kind to its HTTP status
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:   http.StatusBadRequest,
	shared.KindPrecondition: http.StatusUnprocessableEntity,
	shared.KindConflict:     http.StatusConflict,
	shared.KindReferential:  http.StatusConflict,
	shared.KindNotFound:     http.StatusNotFound,
	shared.KindAuditWrite:   http.StatusInternalServerError,
	shared.KindStorage:      http.StatusInternalServerError,
}

// StatusForError returns the HTTP status for any error. Errors outside the
// domain taxonomy are treated as storage failures.
func StatusForError(err error) int {
	if status, ok := KindHTTPStatus[shared.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorInfoFromError builds the response error for err. Only the domain
// message is exposed; the wrapped cause stays in the logs.
func ErrorInfoFromError(err error) *ErrorInfo {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return &ErrorInfo{Code: ErrCodeInternal, Message: "An internal error occurred"}
	}
	return &ErrorInfo{
		Code:       NormalizeErrorCode(de.Kind, de.Code),
		DomainCode: de.Code,
		Message:    de.Message,
	}
}
