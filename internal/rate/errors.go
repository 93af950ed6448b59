package rate

import "errors"

var (
	// ErrRateLimited is returned once an account exhausts its attempt budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
