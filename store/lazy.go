package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Opener establishes a backend connection. Returning ErrUnavailable (or any
// error) leaves the store disconnected until the next attempt.
type Opener func(ctx context.Context) (Store, error)

// DefaultRetryInterval bounds how often a disconnected Lazy re-dials.
const DefaultRetryInterval = 5 * time.Second

// Lazy connects on first use. While no connection exists every operation
// returns an error wrapping ErrUnavailable.
type Lazy struct {
	mu            sync.Mutex
	open          Opener
	inner         Store
	lastAttempt   time.Time
	retryInterval time.Duration
	now           func() time.Time
	log           *zap.Logger
}

var _ Store = (*Lazy)(nil)

func NewLazy(open Opener, log *zap.Logger) *Lazy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lazy{
		open:          open,
		retryInterval: DefaultRetryInterval,
		now:           time.Now,
		log:           log.With(zap.String("component", "store")),
	}
}

// WithRetryInterval overrides DefaultRetryInterval. Zero retries every call.
func (l *Lazy) WithRetryInterval(d time.Duration) *Lazy {
	l.retryInterval = d
	return l
}

func (l *Lazy) conn(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inner != nil {
		return l.inner, nil
	}
	if l.open == nil {
		return nil, ErrUnavailable
	}
	now := l.now()
	if !l.lastAttempt.IsZero() && now.Sub(l.lastAttempt) < l.retryInterval {
		return nil, ErrUnavailable
	}
	l.lastAttempt = now

	s, err := l.open(ctx)
	if err != nil {
		l.log.Warn("database connection failed", zap.Error(err))
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	l.inner = s
	l.log.Info("database connected")
	return s, nil
}

func (l *Lazy) Create(ctx context.Context, collection, id string, doc any) error {
	s, err := l.conn(ctx)
	if err != nil {
		return err
	}
	return s.Create(ctx, collection, id, doc)
}

func (l *Lazy) Put(ctx context.Context, collection, id string, doc any) error {
	s, err := l.conn(ctx)
	if err != nil {
		return err
	}
	return s.Put(ctx, collection, id, doc)
}

func (l *Lazy) Get(ctx context.Context, collection, id string, out any) error {
	s, err := l.conn(ctx)
	if err != nil {
		return err
	}
	return s.Get(ctx, collection, id, out)
}

func (l *Lazy) Delete(ctx context.Context, collection, id string) error {
	s, err := l.conn(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, collection, id)
}

func (l *Lazy) List(ctx context.Context, collection string, fn func(id string, raw []byte) error) error {
	s, err := l.conn(ctx)
	if err != nil {
		return err
	}
	return s.List(ctx, collection, fn)
}

func (l *Lazy) Ping(ctx context.Context) error {
	s, err := l.conn(ctx)
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

// Close closes the connection if one was made.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		return nil
	}
	err := l.inner.Close()
	l.inner = nil
	return err
}
