package store

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

type doc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newBolt(t *testing.T) Store {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "store-test.db"), 0600, nil)
	require.NoError(t, err)
	s := NewBoltStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRedis(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "")
}

func TestBackends(t *testing.T) {
	backends := map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"bbolt":  newBolt,
		"redis":  newRedis,
	}
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			exerciseStore(t, mk(t))
		})
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("CreateGet", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, Posts, "p1", doc{ID: "p1", Title: "first"}))

		got, err := GetAs[doc](ctx, s, Posts, "p1")
		require.NoError(t, err)
		assert.Equal(t, "first", got.Title)
	})

	t.Run("CreateConflict", func(t *testing.T) {
		err := s.Create(ctx, Posts, "p1", doc{ID: "p1"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Posts, "p1", doc{ID: "p1", Title: "edited"}))
		got, err := GetAs[doc](ctx, s, Posts, "p1")
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Title)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := GetAs[doc](ctx, s, Posts, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = GetAs[doc](ctx, s, "no-such-collection", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListAs", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Posts, "p2", doc{ID: "p2", Title: "second"}))
		require.NoError(t, s.Put(ctx, Users, "u1", doc{ID: "u1"}))

		all, err := ListAs[doc](ctx, s, Posts, nil)
		require.NoError(t, err)
		ids := make([]string, 0, len(all))
		for _, d := range all {
			ids = append(ids, d.ID)
		}
		sort.Strings(ids)
		assert.Equal(t, []string{"p1", "p2"}, ids)

		some, err := ListAs(ctx, s, Posts, func(d doc) bool { return d.Title == "second" })
		require.NoError(t, err)
		require.Len(t, some, 1)
		assert.Equal(t, "p2", some[0].ID)

		empty, err := ListAs[doc](ctx, s, "empty", nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("ListStopsOnError", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := s.List(ctx, Posts, func(string, []byte) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, Posts, "p1"))
		_, err := GetAs[doc](ctx, s, Posts, "p1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, Posts, "p1"), ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Options{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Open(ctx, Options{Backend: BackendBolt})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Open(ctx, Options{Backend: BackendRedis})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Open(ctx, Options{Backend: "mongo"})
	assert.Error(t, err)

	s, err := Open(ctx, Options{Backend: BackendBolt, Path: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
