package interceptors

import (
	"net/http"
	"time"

	"github.com/FACorreiaa/loci-local-assistant/pkg/observability"
)

// NewMetricsTransport records request counts and latency for provider.
func NewMetricsTransport(m *observability.Metrics, provider string) Middleware {
	if m == nil {
		return nil
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			status := 0
			if err == nil && resp != nil {
				status = resp.StatusCode
			}
			m.ObserveOutbound(provider, status, time.Since(start))
			return resp, err
		})
	}
}
