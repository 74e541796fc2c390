package core

import (
	"net/http"
	"strconv"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderRetry     = "Retry-After"
)

type denyBody struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// WriteQuotaHeaders exposes the remaining quota of res on w.
func WriteQuotaHeaders(w http.ResponseWriter, res Result) {
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(res.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(res.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// DenyResponse writes the standard 429 rejection for res.
func DenyResponse(w http.ResponseWriter, res Result) {
	WriteQuotaHeaders(w, res)
	w.Header().Set(HeaderRetry, strconv.Itoa(res.RetryAfter))
	WriteJSON(w, http.StatusTooManyRequests, denyBody{
		Success:    false,
		Error:      "Too many requests, please try again later.",
		RetryAfter: res.RetryAfter,
	})
}
