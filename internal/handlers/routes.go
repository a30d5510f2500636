package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/golinks/internal/ratelimit"
)

// WebRoutes holds what RegisterWebRoutes needs besides the handler.
type WebRoutes struct {
	// Guarded wraps every page that requires a signed-in user.
	Guarded []func(http.Handler) http.Handler
	// Throttle limits the redirect route.
	Throttle func(http.Handler) http.Handler
	// StaticDir is served under /.static/ when set.
	StaticDir string
}

// RegisterWebRoutes mounts the HTML surface and the shortcut redirect. The
// redirect catch-all is registered last so the dotted routes win.
func RegisterWebRoutes(r chi.Router, h *WebHandler, cfg WebRoutes) {
	r.Get("/.well-known/acme-challenge/{token}", h.ACMEChallenge)
	r.Get("/.login", h.Login)

	if cfg.StaticDir != "" {
		r.Handle("/.static/*", http.StripPrefix("/.static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Guarded...)

		r.Get("/", h.Home)
		r.Get("/.edit", h.Edit)
		r.Post("/.save", h.Save)

		redirect := http.Handler(http.HandlerFunc(h.Go))
		if cfg.Throttle != nil {
			redirect = cfg.Throttle(redirect)
		}

		r.Get("/*", redirect.ServeHTTP)
	})
}

// RegisterAPIRoutes registers the JSON API with per-endpoint rate limits.
func RegisterAPIRoutes(api huma.API, h *APIHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List links",
		Tags:        []string{"Links"},
	}, h.ListLinks)

	// Write endpoints replace the policy defaults with these limits.
	writeLimits := map[string]any{
		ratelimit.MetadataKey: ratelimit.EndpointConfig{
			Limits: []ratelimit.LimitConfig{
				{Window: time.Minute, Max: 20},
				{Window: time.Hour, Max: 200},
			},
		},
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/links",
		Summary:       "Create a link",
		Description:   "Creates a short name. Fails with 409 when the name is taken.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata:      writeLimits,
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "update-link",
		Method:      http.MethodPut,
		Path:        "/links",
		Summary:     "Rename or repoint a link",
		Description: "Fails with 409 when the original name no longer exists or the new name is taken.",
		Tags:        []string{"Links"},
		Metadata:    writeLimits,
	}, h.UpdateLink)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/links",
		Summary:       "Delete a link",
		Description:   "Deleting a missing link succeeds.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
		Metadata:      writeLimits,
	}, h.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "resolve",
		Method:      http.MethodGet,
		Path:        "/resolve",
		Summary:     "Preview a redirect",
		Description: "Shows where a path would redirect without counting a visit.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead},
		},
	}, h.Resolve)
}
