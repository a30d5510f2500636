package middleware

import (
	"net/http"

	"github.com/serroba/golinks/internal/ratelimit"
	"go.uber.org/zap"
)

// Throttle limits plain HTTP routes per client. Limiter failures let the
// request through so a broken limiter never takes redirects down.
func Throttle(limiter ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), clientKeyFrom(ip, r.UserAgent()))
			if err != nil {
				logger.Error("rate limit check failed", zap.String("path", r.URL.Path), zap.Error(err))
				next.ServeHTTP(w, r)

				return
			}

			if !allowed {
				logger.Warn("request throttled",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", ip),
				)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests.", http.StatusTooManyRequests)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
