package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

var (
	// ErrSessionNotFound is returned for unknown or foreign session ids.
	ErrSessionNotFound = &ServiceError{Code: ErrorNotFound, Message: "session not found"}
	// ErrQuestionNotFound is returned when an answer names a question outside the session.
	ErrQuestionNotFound = &ServiceError{Code: ErrorNotFound, Message: "question not found"}
	// ErrRecordNotFound is returned when a stored record does not exist for the owner.
	ErrRecordNotFound = &ServiceError{Code: ErrorNotFound, Message: "record not found"}
	// ErrSessionFinalized flags a transition attempted after the summary was saved.
	ErrSessionFinalized = &ServiceError{Code: ErrorConflict, Message: "session already finalized"}
)

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
