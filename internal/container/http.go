package container

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/golinks/internal/acme"
	"github.com/serroba/golinks/internal/auth"
	"github.com/serroba/golinks/internal/handlers"
	"github.com/serroba/golinks/internal/health"
	"github.com/serroba/golinks/internal/links"
	"github.com/serroba/golinks/internal/middleware"
	"github.com/serroba/golinks/internal/ratelimit"
	"go.uber.org/zap"
)

// APIPrefix is where the JSON API is mounted.
const APIPrefix = "/.api"

// HTTPPackage provides the router serving redirects and pages, and the JSON
// API mounted under APIPrefix. Invoking huma.API registers the API routes.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*middleware.Canonicalizer, error) {
		opts := do.MustInvoke[*Options](i)

		return middleware.NewCanonicalizer(opts.BaseURL, opts.Aliases())
	})

	do.Provide(i, func(i *do.Injector) (auth.Verifier, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.ClientID == "" {
			do.MustInvoke[*zap.Logger](i).Warn("no client ID configured, login is disabled")

			return nil, nil
		}

		return auth.NewGoogleVerifier(opts.ClientID, opts.LoginDomain), nil
	})

	do.Provide(i, newWebHandler)
	do.Provide(i, newRouter)
	do.Provide(i, newAPI)
}

// guards are the checks every page and API call passes before reaching a
// handler: canonical URL first, then login.
func guards(i *do.Injector) []func(http.Handler) http.Handler {
	opts := do.MustInvoke[*Options](i)
	canon := do.MustInvoke[*middleware.Canonicalizer](i)

	return []func(http.Handler) http.Handler{
		canon.Middleware,
		middleware.RequireLogin(do.MustInvoke[auth.Verifier](i), opts.Base(), do.MustInvoke[*zap.Logger](i)),
	}
}

func newWebHandler(i *do.Injector) (*handlers.WebHandler, error) {
	opts := do.MustInvoke[*Options](i)

	pages, err := handlers.NewPages()
	if err != nil {
		return nil, err
	}

	service, err := do.Invoke[*links.Service](i)
	if err != nil {
		return nil, err
	}

	resolver, err := do.Invoke[*links.Resolver](i)
	if err != nil {
		return nil, err
	}

	return handlers.NewWebHandler(
		service,
		resolver,
		do.MustInvoke[*middleware.Canonicalizer](i),
		acme.FromOS(),
		pages,
		handlers.WebConfig{
			Host:        opts.Host(),
			ClientID:    opts.ClientID,
			LoginDomain: opts.LoginDomain,
		},
		do.MustInvoke[*zap.Logger](i),
	), nil
}

func newRouter(i *do.Injector) (*chi.Mux, error) {
	opts := do.MustInvoke[*Options](i)
	logger := do.MustInvoke[*zap.Logger](i)

	web, err := do.Invoke[*handlers.WebHandler](i)
	if err != nil {
		return nil, err
	}

	throttle, err := do.Invoke[ratelimit.Limiter](i)
	if err != nil {
		return nil, err
	}

	requestMeta, err := middleware.RequestMeta()
	if err != nil {
		return nil, err
	}

	router := chi.NewMux()
	router.Use(
		requestMeta,
		middleware.RequestLogger(logger),
		middleware.Recover(logger, web.RenderPanic),
	)

	handlers.RegisterWebRoutes(router, web, handlers.WebRoutes{
		Guarded:   guards(i),
		Throttle:  middleware.Throttle(throttle, logger),
		StaticDir: opts.StaticDir,
	})

	return router, nil
}

func healthChecks(i *do.Injector) (map[string]health.Checker, error) {
	opts := do.MustInvoke[*Options](i)
	checks := map[string]health.Checker{}

	backend, err := do.Invoke[*Backend](i)
	if err != nil {
		return nil, err
	}

	if backend.Ping != nil {
		checks["store"] = backend.Ping
	}

	if opts.UsesRedis() {
		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		checks["redis"] = health.NewRedisChecker(client)
	}

	return checks, nil
}

func newAPI(i *do.Injector) (huma.API, error) {
	opts := do.MustInvoke[*Options](i)
	logger := do.MustInvoke[*zap.Logger](i)

	router, err := do.Invoke[*chi.Mux](i)
	if err != nil {
		return nil, err
	}

	service, err := do.Invoke[*links.Service](i)
	if err != nil {
		return nil, err
	}

	resolver, err := do.Invoke[*links.Resolver](i)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[*ratelimit.PolicyLimiter](i)
	if err != nil {
		return nil, err
	}

	checks, err := healthChecks(i)
	if err != nil {
		return nil, err
	}

	apiRouter := chi.NewRouter()
	apiRouter.Use(guards(i)...)

	config := huma.DefaultConfig("golinks", "1.0.0")
	config.Servers = []*huma.Server{{URL: opts.Base() + APIPrefix}}

	api := humachi.New(apiRouter, config)
	api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), logger))

	handlers.RegisterAPIRoutes(api, handlers.NewAPIHandler(service, resolver, opts.Base(), logger))
	health.RegisterRoutes(api, health.NewHandler(checks))

	router.Mount(APIPrefix, apiRouter)

	return api, nil
}
