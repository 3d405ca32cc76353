package ratelimit

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
	ErrStoreRequired = errors.New("rate limit store is required")
)
