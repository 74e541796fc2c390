package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts the window on the first
// hit. It returns the post-increment count and the remaining window in ms.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisRateLimiter keeps the same keys and fixed-window semantics as
// MemoryRateLimiter in a store shared by every instance.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	policies  Policies
	now       func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, keyPrefix string, policies Policies) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "glyph-rate:"
	}
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		policies:  policies,
		now:       time.Now,
	}
}

func (r *RedisRateLimiter) key(class RouteClass, clientIP string) string {
	return fmt.Sprintf("%s%s", r.keyPrefix, limiterKey(class, clientIP))
}

func (r *RedisRateLimiter) Check(ctx context.Context, clientIP string, class RouteClass) (Result, error) {
	pol := r.policies.For(class)

	vals, err := fixedWindowScript.Run(ctx, r.client, []string{r.key(class, clientIP)}, pol.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply %v", vals)
	}

	now := r.now()
	resetAt := now.Add(time.Duration(vals[1]) * time.Millisecond)
	return decide(pol, int(vals[0]), resetAt, now), nil
}
