// Package ratelimit throttles requests with a fixed-window counter.
//
// Counters live in a Store: MemoryStore for a single process, or the Redis
// store from pkg/redis when several replicas share the limit.
//
//	limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), cfg)
//	r.Use(ratelimit.Middleware(limiter, ratelimit.ByClientIP("hooks"), log))
package ratelimit
