package interceptors

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID stores id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// NewRequestIDTransport sets header on each outbound request, reusing the
// context's ID when one exists.
func NewRequestIDTransport(header string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			id, ok := RequestIDFromContext(req.Context())
			if !ok || id == "" {
				id = uuid.NewString()
			}
			req = req.Clone(WithRequestID(req.Context(), id))
			req.Header.Set(header, id)
			return next.RoundTrip(req)
		})
	}
}
