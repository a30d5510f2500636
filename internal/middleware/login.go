package middleware

import (
	"net/http"
	"strings"

	"github.com/serroba/golinks/internal/auth"
	"go.uber.org/zap"
)

// TokenCookie holds the ID token set by the sign-in page.
const TokenCookie = "id_token"

// LoginPath is the sign-in page.
const LoginPath = "/.login"

// RequireLogin lets requests through only with a valid token cookie. Others
// are sent to the sign-in page with their URL in the fragment so the page can
// bounce them back. A request coming from the sign-in page itself goes back
// there without a fragment to avoid a loop. A nil verifier disables the check.
func RequireLogin(verifier auth.Verifier, baseURL string, logger *zap.Logger) func(http.Handler) http.Handler {
	loginURL := strings.TrimRight(baseURL, "/") + LoginPath

	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(TokenCookie); err == nil {
				token = c.Value
			}

			id, err := verifier.Verify(r.Context(), token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))

				return
			}

			if token != "" {
				logger.Debug("login rejected", zap.Error(err))
			}

			if strings.Contains(r.Referer(), LoginPath) {
				http.Redirect(w, r, loginURL, http.StatusFound)

				return
			}

			http.Redirect(w, r, loginURL+"#"+ActualURL(r), http.StatusFound)
		})
	}
}
