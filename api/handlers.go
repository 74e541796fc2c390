package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/tunaaoguzhann/glyphgate/service"
	"github.com/tunaaoguzhann/glyphgate/signs"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
	maxTranslateLen    = 2000
)

func (a *API) ListSigns(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		list := a.signs.ByCategory(cat)
		if list == nil {
			list = []signs.Sign{}
		}
		writeOK(w, http.StatusOK, list)
		return
	}
	writeOK(w, http.StatusOK, a.signs.All())
}

func (a *API) GetSign(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s, ok := a.signs.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "Sign not found")
		return
	}
	a.analytics.Track(r.Context(), service.Event{Type: service.EventSignView, Path: r.URL.Path, Query: s.Code})
	writeOK(w, http.StatusOK, s)
}

func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := parseLimit(r, defaultSearchLimit, maxSearchLimit)

	var (
		results []signs.Sign
		err     error
	)
	if r.URL.Query().Get("mode") == "regex" {
		results, err = a.signs.SearchRegex(q, limit)
	} else {
		results, err = a.signs.Search(q, limit)
	}
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	a.analytics.Track(r.Context(), service.Event{Type: service.EventSearch, Path: r.URL.Path, Query: q})
	writeOK(w, http.StatusOK, map[string]any{"query": q, "count": len(results), "results": results})
}

type translateRequest struct {
	Text string `json:"text"`
}

func (a *API) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if utf8.RuneCountInString(text) > maxTranslateLen {
		writeError(w, http.StatusBadRequest, "text is too long")
		return
	}
	tokens := a.signs.Translate(text)
	a.analytics.Track(r.Context(), service.Event{Type: service.EventTranslate, Path: r.URL.Path, Query: text})
	writeOK(w, http.StatusOK, map[string]any{"text": text, "tokens": tokens})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := a.accounts.Register(r.Context(), req)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusCreated, res)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	res, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, res)
}

type tokenRequest struct {
	Token string `json:"token"`
}

// VerifyEmail accepts the token as ?token= (email link) or in a JSON body.
func (a *API) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" && r.Method == http.MethodPost {
		var req tokenRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		tok = req.Token
	}
	if tok == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	u, err := a.accounts.VerifyEmail(r.Context(), tok)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, u)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (a *API) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sent, err := a.accounts.ResendVerification(r.Context(), req.Email)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]bool{"emailSent": sent})
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	u, err := a.accounts.Me(r.Context(), subject(r))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, u)
}

func (a *API) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := a.accounts.Favorites(r.Context(), subject(r))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, favs)
}

func (a *API) AddFavorite(w http.ResponseWriter, r *http.Request) {
	favs, err := a.accounts.AddFavorite(r.Context(), subject(r), chi.URLParam(r, "code"))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, favs)
}

func (a *API) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	favs, err := a.accounts.RemoveFavorite(r.Context(), subject(r), chi.URLParam(r, "code"))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, favs)
}

type postPage struct {
	Posts      []service.Post `json:"posts"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	after, err := decodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	page, err := a.forum.List(r.Context(), after, parseLimit(r, service.DefaultPageSize, service.MaxPageSize))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, postPage{Posts: page.Posts, NextCursor: encodeCursor(page.Next)})
}

func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := a.forum.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, p)
}

func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req service.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.forum.Create(r.Context(), subject(r), req)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusCreated, p)
}

type replyRequest struct {
	Body string `json:"body"`
}

func (a *API) ReplyPost(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.forum.Reply(r.Context(), subject(r), chi.URLParam(r, "id"), req.Body)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusCreated, p)
}

func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.forum.Delete(r.Context(), subject(r), id); err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"deleted": id})
}

type eventRequest struct {
	Type  service.EventType `json:"type"`
	Path  string            `json:"path"`
	Query string            `json:"query"`
}

func (a *API) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, err := a.analytics.Record(r.Context(), service.Event{Type: req.Type, Path: req.Path, Query: req.Query})
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusCreated, ev)
}
