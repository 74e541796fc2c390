package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// AdminHeader carries the plaintext administrator secret.
const AdminHeader = "X-Admin-Password"

// GateConfig wires the gate's collaborators.
type GateConfig struct {
	Limiter RateLimiter
	Tokens  *TokenService
	Admin   *AdminSecret
	Logger  *zap.Logger
}

// Gate classifies each request as public, user or admin and admits it or
// writes the rejection. Rate limiting always runs first.
type Gate struct {
	limiter RateLimiter
	tokens  *TokenService
	admin   *AdminSecret
	log     *zap.Logger
}

func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token service is required")
	}
	if cfg.Admin == nil {
		return nil, errors.New("admin secret is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		limiter: cfg.Limiter,
		tokens:  cfg.Tokens,
		admin:   cfg.Admin,
		log:     log.With(zap.String("component", "gate")),
	}, nil
}

// Public admits any caller within the class budget.
func (g *Gate) Public(class RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.admit(w, r, class) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// User requires a bearer token that currently validates. The decoded
// identity is put on the request context.
func (g *Gate) User(class RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.admit(w, r, class) {
				return
			}
			raw := bearer(r)
			if raw == "" {
				authFailures.WithLabelValues("user", "missing").Inc()
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			id, ok := g.tokens.Validate(raw)
			if !ok {
				_, reason := g.tokens.Inspect(raw)
				if reason == ReasonNone {
					reason = ReasonWrongPurpose
				}
				authFailures.WithLabelValues("user", string(reason)).Inc()
				g.log.Debug("bearer token rejected", zap.Error(reason.Err()))
				WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Admin requires the static administrator secret in AdminHeader.
func (g *Gate) Admin(class RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.admit(w, r, class) {
				return
			}
			if !g.admin.Matches(r.Header.Get(AdminHeader)) {
				authFailures.WithLabelValues("admin", "mismatch").Inc()
				g.log.Info("admin credential rejected", zap.String("client_ip", ClientIP(r)), zap.String("path", r.URL.Path))
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) admit(w http.ResponseWriter, r *http.Request, class RouteClass) bool {
	res, err := g.limiter.Check(r.Context(), ClientIP(r), class)
	if err != nil {
		// Fail open.
		rateLimitErrors.WithLabelValues(string(class)).Inc()
		g.log.Error("rate limiter unavailable", zap.String("class", string(class)), zap.Error(err))
		return true
	}
	if !res.Allowed {
		rateLimitDecisions.WithLabelValues(string(class), "denied").Inc()
		g.log.Debug("request throttled", zap.String("class", string(class)), zap.Int("retry_after", res.RetryAfter), zap.Error(res.Err()))
		DenyResponse(w, res)
		return false
	}
	rateLimitDecisions.WithLabelValues(string(class), "allowed").Inc()
	WriteQuotaHeaders(w, res)
	return true
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller admitted by Gate.User.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.Email == "" && id.SubjectID == "" {
		return Identity{}, false
	}
	return id, true
}
