package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/service"
	"github.com/tunaaoguzhann/glyphgate/signs"
	"github.com/tunaaoguzhann/glyphgate/store"
)

const (
	msgUnavailable = "database unavailable"
	msgInternal    = "Internal server error"
	msgBadBody     = "invalid request body"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

func writeOK(w http.ResponseWriter, status int, data any) {
	core.WriteOK(w, status, data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	core.WriteError(w, status, msg)
}

// mapError turns a service error into the response taxonomy. Only messages
// built for clients are echoed; anything else is logged and answered with a
// generic 500.
func mapError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var safe *service.Error
	switch {
	case errors.Is(err, service.ErrValidation):
		msg := "invalid request"
		if errors.As(err, &safe) {
			msg = safe.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, signs.ErrEmptyQuery), errors.Is(err, signs.ErrPatternTooLong), errors.Is(err, signs.ErrInvalidPattern):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errBadCursor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrForbidden):
		msg := "Forbidden"
		if errors.As(err, &safe) {
			msg = safe.Error()
		}
		writeError(w, http.StatusForbidden, msg)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusBadRequest, "already exists")
	case errors.Is(err, store.ErrUnavailable):
		log.Warn("request failed: database unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgUnavailable)
	default:
		log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}
