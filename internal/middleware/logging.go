package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Server errors log at error level.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}

			if meta, ok := MetaFromContext(r.Context()); ok {
				fields = append(fields,
					zap.String("request_id", meta.RequestID),
					zap.String("client_ip", meta.ClientIP),
				)
			}

			if ww.Status() >= http.StatusInternalServerError {
				logger.Error("request", fields...)

				return
			}

			logger.Info("request", fields...)
		})
	}
}
