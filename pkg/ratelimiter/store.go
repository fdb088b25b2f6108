package ratelimiter

import (
	"context"
	"time"
)

// Store holds bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for key and takes tokens from it when
	// enough are available. Remaining is negative when the bucket could not
	// cover the request; in that case nothing is taken.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}
