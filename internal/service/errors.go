package service

import "errors"

// Error categories returned by the service layer. Handlers match these
// with errors.Is to pick the HTTP status code; the error text is the
// user-facing message.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

type apiError struct {
	category error
	msg      string
}

func (e *apiError) Error() string { return e.msg }
func (e *apiError) Unwrap() error { return e.category }

func validationError(msg string) error { return &apiError{ErrValidation, msg} }
func forbiddenError(msg string) error  { return &apiError{ErrForbidden, msg} }
func notFoundError(msg string) error   { return &apiError{ErrNotFound, msg} }
func conflictError(msg string) error   { return &apiError{ErrConflict, msg} }
