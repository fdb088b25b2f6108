// Package ratelimiter implements a token bucket rate limiter with pluggable
// storage and an HTTP middleware.
//
// Two stores are provided. MemoryStore keeps buckets in process and suits a
// single instance. RedisStore runs the refill and consume step as one Lua
// script, so several instances share the same limits.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 30 * time.Second,
//	})
//
//	r.With(ratelimiter.Middleware(bucket, clientip.Key)).Post("/verify", h)
//
// A denied request never drains the bucket: Result.Remaining goes negative
// to signal the shortfall and the stored token count is left as is.
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response and Retry-After on 429s.
package ratelimiter
