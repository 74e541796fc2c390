package core

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const DefaultSweepProbability = 0.01

type MemoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	policies  Policies
	now       func() time.Time
	sweepProb float64
	roll      func() float64
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiterConfig configures a MemoryRateLimiter. Zero values take the
// defaults.
type MemoryLimiterConfig struct {
	Policies         Policies
	Now              func() time.Time
	SweepProbability float64
	Roll             func() float64
}

// NewMemoryRateLimiter returns a process-local limiter. Each process holds its
// own table, so a multi-instance deployment under-enforces; use
// RedisRateLimiter there.
func NewMemoryRateLimiter(cfg MemoryLimiterConfig) *MemoryRateLimiter {
	r := &MemoryRateLimiter{
		windows:   make(map[string]*window),
		policies:  cfg.Policies,
		now:       cfg.Now,
		sweepProb: cfg.SweepProbability,
		roll:      cfg.Roll,
	}
	if r.policies == nil {
		r.policies = DefaultPolicies()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.sweepProb <= 0 {
		r.sweepProb = DefaultSweepProbability
	}
	if r.roll == nil {
		r.roll = rand.Float64
	}
	return r
}

func (r *MemoryRateLimiter) Check(_ context.Context, clientIP string, class RouteClass) (Result, error) {
	pol := r.policies.For(class)
	key := limiterKey(class, clientIP)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.roll() < r.sweepProb {
		r.sweepLocked(now)
	}

	w, exists := r.windows[key]
	if !exists || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(pol.Window)}
		r.windows[key] = w
		return decide(pol, w.count, w.resetAt, now), nil
	}

	w.count++
	return decide(pol, w.count, w.resetAt, now), nil
}

// Sweep drops every window whose reset time has passed.
func (r *MemoryRateLimiter) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
}

func (r *MemoryRateLimiter) sweepLocked(now time.Time) {
	for key, w := range r.windows {
		if !now.Before(w.resetAt) {
			delete(r.windows, key)
		}
	}
}

// Len reports the number of tracked windows.
func (r *MemoryRateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}
