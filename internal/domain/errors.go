package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("invalid input")
	ErrDuplicate       = errors.New("already exists")
	ErrRateLimited     = errors.New("rate limit reached")
	ErrProviderFailure = errors.New("provider failure")
)
