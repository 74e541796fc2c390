// Package api is the HTTP surface: routes, the response envelope and error
// mapping. Admission (rate limit, bearer token, admin secret) is done by the
// core.Gate middleware mounted per route.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/service"
	"github.com/tunaaoguzhann/glyphgate/signs"
	"github.com/tunaaoguzhann/glyphgate/store"
)

type Config struct {
	Gate      *core.Gate
	Store     store.Store
	Signs     *signs.Dictionary
	Accounts  *service.Accounts
	Forum     *service.Forum
	Analytics *service.Analytics
	Admin     *service.Admin
	Logger    *zap.Logger
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	gate      *core.Gate
	store     store.Store
	signs     *signs.Dictionary
	accounts  *service.Accounts
	forum     *service.Forum
	analytics *service.Analytics
	admin     *service.Admin
	log       *zap.Logger
}

func New(cfg Config) (*API, error) {
	if cfg.Gate == nil || cfg.Store == nil || cfg.Signs == nil {
		return nil, errors.New("gate, store and signs are required")
	}
	if cfg.Accounts == nil || cfg.Forum == nil || cfg.Analytics == nil || cfg.Admin == nil {
		return nil, errors.New("accounts, forum, analytics and admin are required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		gate:      cfg.Gate,
		store:     cfg.Store,
		signs:     cfg.Signs,
		accounts:  cfg.Accounts,
		forum:     cfg.Forum,
		analytics: cfg.Analytics,
		admin:     cfg.Admin,
		log:       log.With(zap.String("component", "api")),
	}, nil
}

// Router returns a chi.Router with all routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(a.recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", a.Health)

	g := a.gate
	r.Route("/api", func(r chi.Router) {
		r.With(g.Public(core.ClassSigns)).Get("/signs", a.ListSigns)
		r.With(g.Public(core.ClassSigns)).Get("/signs/{code}", a.GetSign)
		r.With(g.Public(core.ClassSearch)).Get("/search", a.Search)
		r.With(g.Public(core.ClassSearch)).Post("/translate", a.Translate)

		r.Route("/auth", func(r chi.Router) {
			r.Use(g.Public(core.ClassLogin))
			r.Post("/register", a.Register)
			r.Post("/login", a.Login)
			r.Post("/verify", a.VerifyEmail)
			r.Get("/verify", a.VerifyEmail)
			r.Post("/resend", a.ResendVerification)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(g.User(core.ClassDefault))
			r.Get("/", a.Me)
			r.Get("/favorites", a.ListFavorites)
			r.Put("/favorites/{code}", a.AddFavorite)
			r.Delete("/favorites/{code}", a.RemoveFavorite)
		})

		r.Route("/forum/posts", func(r chi.Router) {
			r.With(g.Public(core.ClassDefault)).Get("/", a.ListPosts)
			r.With(g.Public(core.ClassDefault)).Get("/{id}", a.GetPost)
			r.With(g.User(core.ClassDefault)).Post("/", a.CreatePost)
			r.With(g.User(core.ClassDefault)).Post("/{id}/replies", a.ReplyPost)
			r.With(g.User(core.ClassDefault)).Delete("/{id}", a.DeletePost)
		})

		r.With(g.Public(core.ClassDefault)).Post("/analytics/events", a.RecordEvent)

		r.Route("/admin", func(r chi.Router) {
			r.With(g.Admin(core.ClassLogin)).Post("/login", a.AdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(g.Admin(core.ClassDefault))
				r.Get("/users", a.AdminListUsers)
				r.Delete("/users/{id}", a.AdminDeleteUser)
				r.Delete("/forum/posts/{id}", a.AdminDeletePost)
				r.Get("/analytics", a.AdminAnalytics)
			})
		})
	})

	return r
}

// Health reports process liveness and whether the database answers.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	db := "up"
	if err := a.store.Ping(ctx); err != nil {
		db = "down"
	}
	writeOK(w, http.StatusOK, map[string]string{"status": "ok", "database": db})
}

// subject is the caller admitted by Gate.User. Verification tokens carry no
// subject, so it may be empty; services treat that as unauthenticated.
func subject(r *http.Request) string {
	id, _ := core.IdentityFromContext(r.Context())
	return id.SubjectID
}
