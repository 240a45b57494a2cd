package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_HubObserver(t *testing.T) {
	m := metrics.New()

	m.ConnectionsChanged(3)
	m.EventPublished(delivery.EventCreated)
	m.EventPublished(delivery.EventCreated)
	m.EventDropped()
	m.EventSuperseded()
	m.EventSuperseded()
	m.SubscriberFailed()

	assert.InDelta(t, 3, testutil.ToFloat64(m.RealtimeConnections), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.EventsPublished.WithLabelValues("delivery.created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsDropped), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.EventsSuperseded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SubscriberFailures), 0)
}

func TestMetrics_SetActiveDeliveriesResetsMissingStatuses(t *testing.T) {
	m := metrics.New()

	m.SetActiveDeliveries(map[delivery.Status]int{delivery.InTransit: 4, delivery.Paid: 1})
	m.SetActiveDeliveries(map[delivery.Status]int{delivery.Paid: 2})

	assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveDeliveries.WithLabelValues("InTransit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ActiveDeliveries.WithLabelValues("Paid")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.RateLimitExceeded.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rate_limit_exceeded_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
