package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOutbound(t *testing.T) {
	m := NewMetrics()

	m.ObserveOutbound("foursquare", 200, 20*time.Millisecond)
	m.ObserveOutbound("foursquare", 200, 30*time.Millisecond)
	m.ObserveOutbound("foursquare", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboundRequests.WithLabelValues("foursquare", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboundRequests.WithLabelValues("foursquare", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OutboundDuration))
}

func TestPreferenceWritten(t *testing.T) {
	m := NewMetrics()
	m.PreferenceWritten("@favorites")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreferenceWrites.WithLabelValues("@favorites")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutbound("gemini", 500, time.Second)
		m.PreferenceWritten("@app_settings")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.PreferenceWritten("@theme_preference")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assistant_preference_writes_total{key="@theme_preference"} 1`)
}
