package interceptors

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// NewRateLimitTransport blocks each request until limiter admits it or the
// request context ends.
func NewRateLimitTransport(limiter *rate.Limiter) Middleware {
	if limiter == nil {
		return nil
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
			return next.RoundTrip(req)
		})
	}
}
