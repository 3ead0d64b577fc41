package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of the transport.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindUnauthenticated  Kind = "UNAUTHENTICATED"
	KindForbidden        Kind = "FORBIDDEN"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindInvalidReference Kind = "INVALID_REFERENCE"
	KindExhaustedRetries Kind = "EXHAUSTED_RETRIES"
	KindInternal         Kind = "INTERNAL_ERROR"
)

// AppError carries a client-safe message and the HTTP status it maps to.
type AppError struct {
	Kind    Kind
	Message string
	Code    int
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Kind and Message so sentinel values compare equal to copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, code int, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg, Code: code}
}

func Validation(msg string, fields map[string]string) *AppError {
	err := newError(KindValidation, http.StatusBadRequest, msg)
	err.Fields = fields
	return err
}

func Unauthenticated(msg string) *AppError {
	return newError(KindUnauthenticated, http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return newError(KindForbidden, http.StatusForbidden, msg)
}

func NotFound(msg string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, msg)
}

func Conflict(msg string) *AppError {
	return newError(KindConflict, http.StatusConflict, msg)
}

func InvalidReference(msg string) *AppError {
	return newError(KindInvalidReference, http.StatusBadRequest, msg)
}

func ExhaustedRetries(msg string) *AppError {
	return newError(KindExhaustedRetries, http.StatusInternalServerError, msg)
}

// Internal wraps a storage or transport failure behind a stable message.
func Internal(msg string, err error) *AppError {
	e := newError(KindInternal, http.StatusInternalServerError, msg)
	e.Err = err
	return e
}

// Sentinel errors shared by the lifecycle services.
var (
	ErrNoFieldsProvided  = Validation("no fields to update", nil)
	ErrInvalidTransition = Conflict("cannot edit signed contract without force flag")
	ErrContractProtected = Conflict("cannot delete signed or active contracts")
	ErrNotSignable       = Conflict("contract is not available for signing")
	ErrNotRejectable     = Conflict("contract cannot be rejected")
	ErrAlreadySigned     = Conflict("contract already signed")
	ErrTemplateInUse     = Conflict("cannot delete template, it is used in existing contracts")
	ErrEmailTaken        = Conflict("email already registered")
	ErrInvalidProvider   = InvalidReference("invalid provider")
	ErrInvalidTemplate   = InvalidReference("invalid template")
	ErrNumberExhausted   = ExhaustedRetries("failed to generate unique contract number")
)

// KindOf returns the Kind of err, or KindInternal for errors that are not AppErrors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts an *AppError from the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
