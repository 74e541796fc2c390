package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.etcd.io/bbolt"
)

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBolt   = "bbolt"
	BackendRedis  = "redis"
)

// Options selects a backend for Open.
type Options struct {
	Backend     string
	Path        string // bbolt file
	Redis       *redis.Client
	RedisPrefix string
}

// Opener returns a function that connects the configured backend. A missing
// backend or missing connection details yield ErrUnavailable so the service
// can still start.
func (o Options) Opener() Opener {
	return func(ctx context.Context) (Store, error) {
		return Open(ctx, o)
	}
}

func Open(ctx context.Context, o Options) (Store, error) {
	switch o.Backend {
	case "", BackendNone:
		return nil, fmt.Errorf("%w: no backend configured", ErrUnavailable)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBolt:
		if o.Path == "" {
			return nil, fmt.Errorf("%w: bbolt path is not set", ErrUnavailable)
		}
		return NewBoltStoreFromFile(o.Path, &bbolt.Options{Timeout: time.Second})
	case BackendRedis:
		if o.Redis == nil {
			return nil, fmt.Errorf("%w: redis is not configured", ErrUnavailable)
		}
		s := NewRedisStore(o.Redis, o.RedisPrefix)
		if err := s.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", o.Backend)
	}
}
