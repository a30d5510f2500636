package middleware

import (
	"context"
	"net/http"

	"github.com/jaevor/go-nanoid"
)

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-Id"

// Meta describes the client behind a request.
type Meta struct {
	RequestID string
	ClientIP  string
	UserAgent string
	Referrer  string
}

type metaKey struct{}

// ContextWithMeta stores meta in ctx.
func ContextWithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the Meta stored by RequestMeta.
func MetaFromContext(ctx context.Context) (Meta, bool) {
	meta, ok := ctx.Value(metaKey{}).(Meta)

	return meta, ok
}

// RequestMeta attaches a Meta with a fresh request ID to every request. An
// incoming X-Request-Id is kept so IDs survive a proxy hop.
func RequestMeta() (func(http.Handler) http.Handler, error) {
	newID, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = newID()
			}

			meta := Meta{
				RequestID: id,
				ClientIP:  ClientIP(r),
				UserAgent: r.UserAgent(),
				Referrer:  r.Referer(),
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ContextWithMeta(r.Context(), meta)))
		})
	}, nil
}
