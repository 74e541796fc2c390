package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvProduction = "production"

// Load reads path (optional, YAML) and overlays GLYPH_* environment
// variables, e.g. GLYPH_AUTH_JWT_SECRET for auth.jwt_secret.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	v.SetDefault("app.name", "glyphgate")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "10s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("auth.verification_ttl", "24h")
	v.SetDefault("auth.strict_session_purpose", false)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.sweep_probability", 0.01)
	v.SetDefault("ratelimit.redis_prefix", "glyph-rate:")
	v.SetDefault("ratelimit.policies.search.window", "1m")
	v.SetDefault("ratelimit.policies.search.max", 15)
	v.SetDefault("ratelimit.policies.signs.window", "1m")
	v.SetDefault("ratelimit.policies.signs.max", 30)
	v.SetDefault("ratelimit.policies.login.window", "10m")
	v.SetDefault("ratelimit.policies.login.max", 50)
	v.SetDefault("ratelimit.policies.default.window", "1m")
	v.SetDefault("ratelimit.policies.default.max", 60)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("store.backend", "bbolt")
	v.SetDefault("store.path", "glyphgate.db")
	v.SetDefault("store.redis_prefix", "glyph-doc:")

	v.SetDefault("smtp.addr", "")
	v.SetDefault("smtp.from", "Glyphgate <noreply@localhost>")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.use_tls", false)
	v.SetDefault("smtp.timeout", "10s")
	v.SetDefault("smtp.subj_prefix", "[Glyphgate]")

	v.SetDefault("signs.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")
	v.SetDefault("otel.service_name", "glyphgate")
	v.SetDefault("otel.sample_ratio", 0.1)

	v.SetEnvPrefix("GLYPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
