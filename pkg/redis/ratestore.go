package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/duebook/pkg/ratelimit"
)

// incrScript increments the counter and starts its expiry on the first hit.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateStore keeps fixed-window counters in redis so replicas share a limit.
type RateStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRateStore creates a RateStore. Keys are namespaced with prefix.
func NewRateStore(client redis.UniversalClient, prefix string) *RateStore {
	if client == nil {
		panic("redis: client is required")
	}
	return &RateStore{client: client, prefix: prefix}
}

// IncrementAndGet implements ratelimit.Store.
func (s *RateStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := s.prefix + key
	res, err := incrScript.Run(ctx, s.client, []string{fullKey}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", fullKey, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("increment %s: unexpected reply %v", fullKey, res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}

var _ ratelimit.Store = (*RateStore)(nil)
