package interceptors

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// NewLoggingTransport logs every outbound request with its duration and payload sizes.
func NewLoggingTransport(logger *slog.Logger, provider string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			ctx := req.Context()

			logger.DebugContext(ctx, "outbound request started", appendLoggerFields(ctx,
				"provider", provider,
				"method", req.Method,
				"path", req.URL.Path,
				"request_size_bytes", req.ContentLength,
			)...)

			resp, err := next.RoundTrip(req)

			duration := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "outbound request failed", appendLoggerFields(ctx,
					"provider", provider,
					"path", req.URL.Path,
					"duration", duration.String(),
					"duration_ms", duration.Milliseconds(),
					"error", err,
				)...)
				return resp, err
			}

			level := slog.LevelInfo
			if resp.StatusCode >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "outbound request completed", appendLoggerFields(ctx,
				"provider", provider,
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"duration", duration.String(),
				"duration_ms", duration.Milliseconds(),
				"response_size_bytes", resp.ContentLength,
			)...)

			return resp, nil
		})
	}
}

func appendLoggerFields(ctx context.Context, base ...any) []any {
	if requestID, ok := RequestIDFromContext(ctx); ok && requestID != "" {
		base = append(base, "request_id", requestID)
	}
	return base
}
