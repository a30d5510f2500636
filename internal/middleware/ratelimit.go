package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/golinks/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter applies the policy to the JSON API, keyed by client IP
// and user agent. An operation can opt out, or replace the policy with its
// own limits, through ratelimit.MetadataKey. Rejections get a 429 with a
// Retry-After of the exceeded window; store failures get a 500.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.ConfigFor(ctx)
		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		var (
			key      = humaClientKey(ctx)
			route    = operationPath(ctx)
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			allowed, exceeded, err = limiter.AllowRoute(ctx.Context(), key, route, cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", route), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			reject(api, ctx, exceeded, route, logger)

			return
		}

		next(ctx)
	}
}

// operationPath is the route template, so every request to a route shares
// one counter per client.
func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func reject(api huma.API, ctx huma.Context, exceeded *ratelimit.LimitExceeded, route string, logger *zap.Logger) {
	msg := "rate limit exceeded"

	if exceeded != nil {
		msg = fmt.Sprintf("rate limit exceeded: %s, %d/%d requests in %s",
			exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)

		logger.Warn("rate limit exceeded",
			zap.String("path", route),
			zap.String("method", ctx.Method()),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("client_ip", humaClientIP(ctx)),
		)

		ctx.SetHeader("Retry-After", strconv.Itoa(max(1, int(exceeded.Config.Window.Seconds()))))
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}
