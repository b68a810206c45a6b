package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so callers can decide how to propagate it
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindPrecondition ErrorKind = "precondition"
	KindConflict     ErrorKind = "conflict"
	KindReferential  ErrorKind = "referential"
	KindAuditWrite   ErrorKind = "audit_write"
	KindStorage      ErrorKind = "storage"
	KindNotFound     ErrorKind = "not_found"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code so sentinel comparisons survive wrapping
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error. Kind defaults to validation.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports bad or missing caller input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewPreconditionError reports an action not allowed in the current state
func NewPreconditionError(code, message string) *DomainError {
	return &DomainError{Kind: KindPrecondition, Code: code, Message: message}
}

// NewConflictError reports a duplicate or a lost concurrent update
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewReferentialError reports a missing related row
func NewReferentialError(code, message string) *DomainError {
	return &DomainError{Kind: KindReferential, Code: code, Message: message}
}

// NewAuditWriteError wraps a failure to append to the correction audit log
func NewAuditWriteError(cause error) *DomainError {
	return &DomainError{
		Kind:    KindAuditWrite,
		Code:    CodeAuditLogFailed,
		Message: "Correction audit log could not be written",
		Cause:   cause,
	}
}

// NewStorageError wraps a generic backend failure
func NewStorageError(message string, cause error) *DomainError {
	return &DomainError{Kind: KindStorage, Code: "STORAGE_ERROR", Message: message, Cause: cause}
}

// NewNotFoundError reports a missing resource
func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

// KindOf returns the kind of err, or KindStorage for errors outside the taxonomy
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}

// IsKind reports whether err belongs to kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeAuditLogFailed is the user-visible code for audit write failures
const CodeAuditLogFailed = "AUDIT_LOG_FAILED"

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewConflictError("ALREADY_EXISTS", "Resource already exists")
	ErrDuplicateRecord     = NewConflictError("DUPLICATE_RECORD", "A duplicate record would be created. Refresh and retry.")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("OPTIMISTIC_LOCK_ERROR", "Record was modified by another user. Refresh and retry.")
	ErrRelatedMissing      = NewReferentialError("RELATED_RECORD_MISSING", "A related record is missing or was removed")
	ErrInvalidState        = NewPreconditionError("INVALID_STATE", "Operation not allowed in current state")
	ErrUnauthorized        = NewPreconditionError("UNAUTHORIZED", "Not authorized to perform this action")
)
