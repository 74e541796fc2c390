package core

import (
	"net/http"
	"strings"
)

// UnknownClient is the bucket for requests that carry neither forwarding
// header. Everything behind a proxy that strips both shares it.
const UnknownClient = "unknown"

// ClientIP takes the first X-Forwarded-For entry, then X-Real-IP, then
// UnknownClient. RemoteAddr is deliberately not consulted.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}
