package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glyph_ratelimit_decisions_total",
		Help: "Rate limit decisions by route class and outcome.",
	}, []string{"class", "outcome"})
	rateLimitErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glyph_ratelimit_errors_total",
		Help: "Rate limiter backend failures (requests let through).",
	}, []string{"class"})
	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glyph_auth_failures_total",
		Help: "Rejected credentials by gate kind and internal reason.",
	}, []string{"kind", "reason"})
)
