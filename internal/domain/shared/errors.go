package shared

import "errors"

// ErrorKind classifies a domain error for propagation and HTTP mapping.
type ErrorKind string

const (
	// ErrorKindValidation marks malformed or missing input; the caller can fix and retry.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindStateConflict marks an operation attempted on an entity that is not
	// in the required state (e.g. accepting an expired transfer).
	ErrorKindStateConflict ErrorKind = "state_conflict"
	// ErrorKindAuthorization marks an actor lacking the required relationship to the
	// entity (not a candidate approver, not the session owner).
	ErrorKindAuthorization ErrorKind = "authorization"
	// ErrorKindIntegrity marks an operation that would violate an invariant such as
	// a negative vault balance or a duplicate open session.
	ErrorKindIntegrity ErrorKind = "integrity"
	// ErrorKindNotFound marks an absent entity or collaborator reference.
	ErrorKindNotFound ErrorKind = "not_found"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(ErrorKindValidation, code, message)
}

// NewStateConflictError creates a state-conflict error
func NewStateConflictError(code, message string) *DomainError {
	return NewDomainError(ErrorKindStateConflict, code, message)
}

// NewAuthorizationError creates an authorization error
func NewAuthorizationError(code, message string) *DomainError {
	return NewDomainError(ErrorKindAuthorization, code, message)
}

// NewIntegrityError creates an integrity error
func NewIntegrityError(code, message string) *DomainError {
	return NewDomainError(ErrorKindIntegrity, code, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(ErrorKindNotFound, code, message)
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// KindOf returns the kind of a DomainError, or an empty kind for other errors
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewIntegrityError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewStateConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewAuthorizationError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewStateConflictError("INVALID_STATE", "Operation not allowed in current state")
)
