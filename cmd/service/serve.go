package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tunaaoguzhann/glyphgate/api"
	"github.com/tunaaoguzhann/glyphgate/config"
	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/mailer"
	"github.com/tunaaoguzhann/glyphgate/obs"
	"github.com/tunaaoguzhann/glyphgate/service"
	"github.com/tunaaoguzhann/glyphgate/signs"
	"github.com/tunaaoguzhann/glyphgate/store"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			warnings, err := cfg.Validate()
			if err != nil {
				return err
			}
			log, err := obs.NewLogger(cfg.LoggerConfig())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			for _, w := range warnings {
				log.Warn(w)
			}
			return runServe(cmd.Context(), cfg, log)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config, log *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	otl, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Connects on first use; until then store calls return ErrUnavailable.
	db := store.NewLazy(store.Options{
		Backend:     cfg.Store.Backend,
		Path:        cfg.Store.Path,
		Redis:       rdb,
		RedisPrefix: cfg.Store.RedisPrefix,
	}.Opener(), log)

	limiter, err := core.NewRateLimiter(core.LimiterOptions{
		Backend:          cfg.RateLimit.Backend,
		Redis:            rdb,
		RedisKeyPrefix:   cfg.RateLimit.RedisPrefix,
		Policies:         cfg.RateLimit.AsPolicies(),
		SweepProbability: cfg.RateLimit.SweepProbability,
	})
	if err != nil {
		return err
	}
	tokens, err := core.NewTokenService(core.TokenConfig{
		Secret:               cfg.Auth.JWTSecret,
		SessionTTL:           cfg.Auth.SessionTTL,
		VerificationTTL:      cfg.Auth.VerificationTTL,
		StrictSessionPurpose: cfg.Auth.StrictSessionPurpose,
	})
	if err != nil {
		return err
	}
	adminSecret, err := core.NewAdminSecret(cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}
	gate, err := core.NewGate(core.GateConfig{Limiter: limiter, Tokens: tokens, Admin: adminSecret, Logger: log})
	if err != nil {
		return err
	}

	dict, err := signs.Open(cfg.Signs.Path)
	if err != nil {
		return fmt.Errorf("load signs: %w", err)
	}

	var mail mailer.Sender = mailer.NewLogSender(log)
	if cfg.SMTP.Enabled() {
		mail = mailer.New(cfg.SMTP.AsMailerConfig(), log)
	}

	handler, err := buildAPI(db, dict, tokens, gate, mail, cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      obs.HTTPHandler(handler, "glyphgate"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	ms := obs.NewMetricsServer(cfg.Server.MetricsAddr, db.Ping)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Backend), zap.String("ratelimit", cfg.RateLimit.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics listening", zap.String("addr", ms.Addr))
		if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shCtx), ms.Shutdown(shCtx))
	})

	runErr := g.Wait()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := db.Close(); err != nil {
		log.Warn("close store", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
	if err := otl.Shutdown(shCtx); err != nil {
		log.Warn("otel shutdown", zap.Error(err))
	}
	return runErr
}

func buildAPI(db store.Store, dict *signs.Dictionary, tokens *core.TokenService, gate *core.Gate,
	mail mailer.Sender, cfg *config.Config, log *zap.Logger) (http.Handler, error) {
	accounts, err := service.NewAccounts(service.AccountsConfig{
		Store:     db,
		Tokens:    tokens,
		Mailer:    mail,
		Signs:     dict,
		PublicURL: cfg.Server.PublicURL,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	forum, err := service.NewForum(service.ForumConfig{Store: db, Logger: log})
	if err != nil {
		return nil, err
	}
	analytics, err := service.NewAnalytics(service.AnalyticsConfig{Store: db, Logger: log})
	if err != nil {
		return nil, err
	}
	admin, err := service.NewAdmin(service.AdminConfig{Store: db, Forum: forum, Analytics: analytics, Logger: log})
	if err != nil {
		return nil, err
	}
	a, err := api.New(api.Config{
		Gate:      gate,
		Store:     db,
		Signs:     dict,
		Accounts:  accounts,
		Forum:     forum,
		Analytics: analytics,
		Admin:     admin,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	return a.Router(), nil
}
