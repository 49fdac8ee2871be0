package middlewarectx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/metrics"
)

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/payments/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/payments/{id}", "418")
	var before dto.Metric
	require.NoError(t, counter.Write(&before))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/payments/42", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	var after dto.Metric
	require.NoError(t, counter.Write(&after))
	assert.Equal(t, before.GetCounter().GetValue()+1, after.GetCounter().GetValue())
}

func TestStatusWriter_DefaultsToOK(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}
	_, err := sw.Write([]byte("x"))
	require.NoError(t, err)
	sw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, sw.status)
	assert.Equal(t, http.StatusOK, rr.Code)
}
