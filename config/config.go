package config

import (
	"time"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/mailer"
	"github.com/tunaaoguzhann/glyphgate/obs"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

func (a App) Production() bool { return a.Env == EnvProduction }

type Server struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	PublicURL       string        `mapstructure:"public_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Auth struct {
	JWTSecret            string        `mapstructure:"jwt_secret"`
	AdminPassword        string        `mapstructure:"admin_password"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"`
	VerificationTTL      time.Duration `mapstructure:"verification_ttl"`
	StrictSessionPurpose bool          `mapstructure:"strict_session_purpose"`
}

type Policy struct {
	Window time.Duration `mapstructure:"window"`
	Max    int           `mapstructure:"max"`
}

type RateLimit struct {
	Backend          string            `mapstructure:"backend"`
	SweepProbability float64           `mapstructure:"sweep_probability"`
	RedisPrefix      string            `mapstructure:"redis_prefix"`
	Policies         map[string]Policy `mapstructure:"policies"`
}

// AsPolicies merges the configured policies over the built-in table.
func (rl RateLimit) AsPolicies() core.Policies {
	out := core.DefaultPolicies()
	for class, p := range rl.Policies {
		if p.Window <= 0 || p.Max <= 0 {
			continue
		}
		out[core.RouteClass(class)] = core.Policy{Window: p.Window, Max: p.Max}
	}
	return out
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Store struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type SMTP struct {
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

// Enabled reports whether outbound mail is configured at all.
func (s SMTP) Enabled() bool { return s.Addr != "" }

func (s SMTP) AsMailerConfig() mailer.Config {
	return mailer.Config{
		Addr:       s.Addr,
		From:       s.From,
		User:       s.User,
		Password:   s.Password,
		UseTLS:     s.UseTLS,
		Timeout:    s.Timeout,
		SubjPrefix: s.SubjPrefix,
	}
}

type Signs struct {
	Path string `mapstructure:"path"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	Auth      Auth      `mapstructure:"auth"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Redis     Redis     `mapstructure:"redis"`
	Store     Store     `mapstructure:"store"`
	SMTP      SMTP      `mapstructure:"smtp"`
	Signs     Signs     `mapstructure:"signs"`
	Log       Log       `mapstructure:"log"`
	OTEL      OTEL      `mapstructure:"otel"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
