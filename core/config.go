package core

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// LimiterOptions selects and configures a RateLimiter backend.
type LimiterOptions struct {
	Backend          string
	Redis            *redis.Client
	RedisKeyPrefix   string
	Policies         Policies
	SweepProbability float64
}

// NewRateLimiter builds the limiter named by opts.Backend. An empty backend
// means memory.
func NewRateLimiter(opts LimiterOptions) (RateLimiter, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryRateLimiter(MemoryLimiterConfig{
			Policies:         opts.Policies,
			SweepProbability: opts.SweepProbability,
		}), nil
	case BackendRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis rate limiter: client is required")
		}
		return NewRedisRateLimiter(opts.Redis, opts.RedisKeyPrefix, opts.Policies), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
