package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per collection; fields are document ids and
// values are the JSON documents.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "glyph-doc:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) key(collection string) string {
	return fmt.Sprintf("%s%s", s.keyPrefix, collection)
}

func (s *RedisStore) Create(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	ok, err := s.client.HSetNX(ctx, s.key(collection), id, raw).Result()
	if err != nil {
		return fmt.Errorf("redis hsetnx: %w", err)
	}
	if !ok {
		return conflict(collection, id)
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key(collection), id, raw).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string, out any) error {
	val, err := s.client.HGet(ctx, s.key(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return notFound(collection, id)
	}
	if err != nil {
		return fmt.Errorf("redis hget: %w", err)
	}
	return json.Unmarshal([]byte(val), out)
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	n, err := s.client.HDel(ctx, s.key(collection), id).Result()
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	if n == 0 {
		return notFound(collection, id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, collection string, fn func(id string, raw []byte) error) error {
	all, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return fmt.Errorf("redis hgetall: %w", err)
	}
	for id, val := range all {
		if err := fn(id, []byte(val)); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op: the client is shared with the rate limiter and closed by
// its owner.
func (s *RedisStore) Close() error {
	return nil
}
