package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyUnconfigured(t *testing.T) {
	l := NewLazy(Options{}.Opener(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, l.Put(ctx, Users, "u1", doc{}), ErrUnavailable)
	_, err := GetAs[doc](ctx, l, Users, "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, l.Ping(ctx), ErrUnavailable)
	assert.NoError(t, l.Close())
}

func TestLazyNilOpener(t *testing.T) {
	l := NewLazy(nil, nil)
	assert.ErrorIs(t, l.Delete(context.Background(), Users, "u1"), ErrUnavailable)
}

func TestLazyConnectsOnce(t *testing.T) {
	opens := 0
	l := NewLazy(func(context.Context) (Store, error) {
		opens++
		return NewMemoryStore(), nil
	}, nil)
	ctx := context.Background()

	require.NoError(t, l.Create(ctx, Users, "u1", doc{ID: "u1"}))
	got, err := GetAs[doc](ctx, l, Users, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, 1, opens)
}

func TestLazyRetriesAfterInterval(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fail := true
	opens := 0
	l := NewLazy(func(context.Context) (Store, error) {
		opens++
		if fail {
			return nil, errors.New("connection refused")
		}
		return NewMemoryStore(), nil
	}, nil).WithRetryInterval(5 * time.Second)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	err := l.Ping(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, opens)

	// Within the interval no new dial happens.
	fail = false
	now = now.Add(time.Second)
	assert.ErrorIs(t, l.Ping(ctx), ErrUnavailable)
	assert.Equal(t, 1, opens)

	now = now.Add(5 * time.Second)
	assert.NoError(t, l.Ping(ctx))
	assert.Equal(t, 2, opens)
}
