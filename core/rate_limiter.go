package core

import (
	"context"
	"math"
	"time"
)

// RouteClass selects the rate-limit policy for an endpoint.
type RouteClass string

const (
	ClassSearch  RouteClass = "search"
	ClassSigns   RouteClass = "signs"
	ClassLogin   RouteClass = "login"
	ClassDefault RouteClass = "default"
)

// Policy is a fixed-window budget: at most Max requests per Window.
type Policy struct {
	Window time.Duration
	Max    int
}

// Policies maps a route class to its budget.
type Policies map[RouteClass]Policy

// DefaultPolicies returns the built-in policy table.
func DefaultPolicies() Policies {
	return Policies{
		ClassSearch:  {Window: time.Minute, Max: 15},
		ClassSigns:   {Window: time.Minute, Max: 30},
		ClassLogin:   {Window: 10 * time.Minute, Max: 50},
		ClassDefault: {Window: time.Minute, Max: 60},
	}
}

// For returns the policy of class, falling back to the default class.
func (p Policies) For(class RouteClass) Policy {
	if pol, ok := p[class]; ok {
		return pol
	}
	if pol, ok := p[ClassDefault]; ok {
		return pol
	}
	return DefaultPolicies()[ClassDefault]
}

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until the window resets; set only when denied.
	RetryAfter int
}

// Err is ErrRateLimitExceeded for a denied result and nil otherwise.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return ErrRateLimitExceeded
}

// RateLimiter counts requests per (route class, client IP) in fixed windows.
//
// Windows are fixed, not sliding: a client may spend Max right before a
// boundary and Max again right after it.
type RateLimiter interface {
	Check(ctx context.Context, clientIP string, class RouteClass) (Result, error)
}

func limiterKey(class RouteClass, clientIP string) string {
	return string(class) + ":" + clientIP
}

func decide(pol Policy, count int, resetAt, now time.Time) Result {
	res := Result{
		Limit:   pol.Max,
		ResetAt: resetAt,
	}
	if count > pol.Max {
		res.RetryAfter = retryAfterSeconds(resetAt.Sub(now))
		return res
	}
	res.Allowed = true
	res.Remaining = pol.Max - count
	return res
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
