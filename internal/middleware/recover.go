package middleware

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// PanicRenderer writes the response shown after a recovered panic.
type PanicRenderer func(w http.ResponseWriter, r *http.Request, message string)

// Recover turns a panic into a 500 rendered by render. The stack goes to the log.
func Recover(logger *zap.Logger, render PanicRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)

				render(w, r, fmt.Sprint(rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
