package config

import (
	"errors"
	"fmt"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/store"
)

// Fallback secrets for local development. Production refuses to start with
// either of them.
const (
	DevJWTSecret     = "glyphgate-dev-only-jwt-secret-do-not-deploy"
	DevAdminPassword = "glyphgate-dev-admin"
	MinSecretLen     = 32
)

const (
	ErrMissingJWTSecret     = ErrConfig("auth.jwt_secret must be set in production")
	ErrWeakJWTSecret        = ErrConfig("auth.jwt_secret is too short")
	ErrMissingAdminPassword = ErrConfig("auth.admin_password must be set in production")
)

// Validate is the startup check for secrets and backends. Outside production
// unset secrets are replaced by the development fallbacks and reported as
// warnings; in production they are errors.
func (c *Config) Validate() (warnings []string, err error) {
	var errs []error
	prod := c.App.Production()

	switch {
	case c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DevJWTSecret:
		if prod {
			errs = append(errs, ErrMissingJWTSecret)
			break
		}
		c.Auth.JWTSecret = DevJWTSecret
		warnings = append(warnings, "auth.jwt_secret not set, using the development fallback")
	case len(c.Auth.JWTSecret) < MinSecretLen:
		if prod {
			errs = append(errs, ErrWeakJWTSecret)
			break
		}
		warnings = append(warnings, fmt.Sprintf("auth.jwt_secret is shorter than %d bytes", MinSecretLen))
	}

	if c.Auth.AdminPassword == "" || c.Auth.AdminPassword == DevAdminPassword {
		if prod {
			errs = append(errs, ErrMissingAdminPassword)
		} else {
			c.Auth.AdminPassword = DevAdminPassword
			warnings = append(warnings, "auth.admin_password not set, using the development fallback")
		}
	}

	switch c.RateLimit.Backend {
	case core.BackendMemory:
		if prod {
			warnings = append(warnings, "ratelimit.backend=memory: limits are per instance")
		}
	case core.BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, ErrConfig("ratelimit.backend=redis requires redis.addr"))
		}
	default:
		errs = append(errs, ErrConfig(fmt.Sprintf("unknown ratelimit.backend %q", c.RateLimit.Backend)))
	}
	if p := c.RateLimit.SweepProbability; p < 0 || p > 1 {
		errs = append(errs, ErrConfig("ratelimit.sweep_probability must be within [0, 1]"))
	}

	switch c.Store.Backend {
	case store.BackendMemory, store.BackendBolt:
	case store.BackendRedis:
		if c.Redis.Addr == "" {
			warnings = append(warnings, "store.backend=redis without redis.addr: database will be unavailable")
		}
	case store.BackendNone, "":
		warnings = append(warnings, "no store backend configured: database will be unavailable")
	default:
		errs = append(errs, ErrConfig(fmt.Sprintf("unknown store.backend %q", c.Store.Backend)))
	}

	if !c.SMTP.Enabled() {
		warnings = append(warnings, "smtp.addr not set: verification emails are logged, not sent")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		errs = append(errs, ErrConfig("otel.sample_ratio must be within [0, 1]"))
	}

	return warnings, errors.Join(errs...)
}
