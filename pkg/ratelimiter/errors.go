package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidTokenCount = errors.New("invalid token count")
	ErrStoreRequired     = errors.New("store is required")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
