package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"custodia/pkg/requestcontext"
)

// RateLimitStore counts requests per key within a fixed window. The redis
// client wrapper implements it; tests use an in-process fake.
type RateLimitStore interface {
	// Incr increments the counter under key, setting the window TTL on
	// first increment, and returns the new count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit applies a fixed-window per-IP limit. It fails open: if the
// backing store is unreachable the request proceeds, since availability of
// the registry matters more than precise throttling.
func RateLimit(store RateLimitStore, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			count, err := store.Incr(r.Context(), "ratelimit:"+ip, window)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limit store unavailable, failing open",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					"ip", ip,
					"count", count,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", window.String())
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
