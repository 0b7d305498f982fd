package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript mirrors MemoryStore.Hit atomically on the Redis side.
// KEYS[1]=key ARGV[1]=limit ARGV[2]=window in ms.
// Returns {limited(0|1), count, ttl_ms}.
var hitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return {1, current, redis.call('PTTL', KEYS[1])}
end
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {0, count, redis.call('PTTL', KEYS[1])}
`)

// RedisStore keeps fixed-window counters in Redis so every instance sees the
// same counts. Expired windows are removed by Redis key expiry.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix (default "ratelimit").
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisStore returns a store using rdb.
func NewRedisStore(rdb redis.Scripter, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	res, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + ":" + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis hit %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result for %s", key)
	}

	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return Decision{
		Limited: res[0] == 1,
		Limit:   limit,
		Count:   int(res[1]),
		ResetAt: s.now().Add(ttl),
	}, nil
}
