package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tunaaoguzhann/glyphgate/service"
)

var errBadCursor = errors.New("invalid cursor")

// encodeCursor turns a page key into an opaque URL-safe token.
func encodeCursor(k *service.PageKey) string {
	if k == nil {
		return ""
	}
	raw, err := json.Marshal(k)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(encoded string) (*service.PageKey, error) {
	if encoded == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errBadCursor
	}
	var k service.PageKey
	if err := json.Unmarshal(raw, &k); err != nil || k.ID == "" || k.CreatedAt.IsZero() {
		return nil, errBadCursor
	}
	return &k, nil
}

// parseLimit reads the "limit" query parameter. Missing or invalid values
// give def; the result is capped at max.
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}
