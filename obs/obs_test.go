package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", App: "glyphgate", Env: "test"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	l, err = NewLogger(LogConfig{Level: "nonsense", Pretty: true})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
}

func TestSetupOTelDisabled(t *testing.T) {
	o, err := SetupOTel(context.Background(), &OTELConfig{})
	require.NoError(t, err)
	assert.Nil(t, o.TracerProvider)
	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestMetricsServer(t *testing.T) {
	healthy := true
	srv := NewMetricsServer(":0", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("store down")
	})

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	HTTPRequests.WithLabelValues("GET", "/test", "200").Inc()
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "glyph_http_requests_total")
}
