package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Requests.WithLabelValues("/orders/{id}", "GET", "404")))
}

func TestGatewayAndOrderCounters(t *testing.T) {
	m := New()
	m.ObserveGatewayCall("create_order", "ok", 120*time.Millisecond)
	m.ObserveGatewayCall("create_order", "timeout", 10*time.Second)
	m.ObserveGatewayCall("create_order", "ok", 80*time.Millisecond)
	m.OrderEvent("created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("create_order", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("create_order", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderEvents.WithLabelValues("created")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveGatewayCall("create_order", "ok", time.Second)
		nilMetrics.OrderEvent("created")
	})
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.OrderEvent("paid")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `storefront_order_events_total{event="paid"} 1`))
}
