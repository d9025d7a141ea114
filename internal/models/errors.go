package models

import "errors"

// Domain failure taxonomy. Repositories and services wrap these with
// fmt.Errorf("...: %w", ...) so handlers can classify with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation failed")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrStorageFailure   = errors.New("storage failure")
	ErrGatewayError     = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid payment signature")
)
