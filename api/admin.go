package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tunaaoguzhann/glyphgate/service"
)

// AdminLogin only confirms the credential; Gate.Admin has already checked it.
func (a *API) AdminLogin(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (a *API) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.admin.Users(r.Context())
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, users)
}

func (a *API) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.admin.DeleteUser(r.Context(), id); err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"deleted": id})
}

func (a *API) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.admin.DeletePost(r.Context(), id); err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"deleted": id})
}

func (a *API) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	top := service.DefaultTopN
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			top = n
		}
	}
	sum, err := a.admin.Analytics(r.Context(), top)
	if err != nil {
		mapError(w, r, a.log, err)
		return
	}
	writeOK(w, http.StatusOK, sum)
}
