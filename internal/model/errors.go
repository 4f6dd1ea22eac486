package model

import "errors"

// ErrorKind classifies domain errors so callers can map them to a response
// without string matching.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindExpired      ErrorKind = "expired"
	KindValidation   ErrorKind = "validation"
)

// DomainError is a guard violation surfaced at an operation boundary.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewNotFound(msg string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: msg}
}

func NewForbidden(msg string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: msg}
}

func NewInvalidState(msg string) *DomainError {
	return &DomainError{Kind: KindInvalidState, Message: msg}
}

func NewExpired(msg string) *DomainError {
	return &DomainError{Kind: KindExpired, Message: msg}
}

func NewValidation(msg string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: msg}
}

// IsKind reports whether err is a DomainError of the given kind, unwrapping
// as needed.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
