package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownAccount     = errors.New("no account for phone")
	ErrPhoneAlreadyExists = errors.New("phone already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidPhone       = errors.New("phone must be 11 digits")
	ErrMissingFields      = errors.New("required fields missing")
	ErrInvalidRole        = errors.New("invalid role")
)
