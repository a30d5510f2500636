package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// ActualURL reconstructs the URL the client asked for. Requests that arrived
// over TLS, directly or at a proxy reporting X-Forwarded-Proto, are https.
func ActualURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// Canonicalizer redirects requests that reached the service under one of its
// alias hosts, or over plain HTTP, to the same path on the base URL.
type Canonicalizer struct {
	base  *url.URL
	hosts map[string]struct{}
}

// NewCanonicalizer accepts the base URL and every other host name the service
// answers to. Requests for hosts outside that set are left alone.
func NewCanonicalizer(baseURL string, aliases []string) (*Canonicalizer, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}

	hosts := map[string]struct{}{strings.ToLower(base.Host): {}}
	for _, alias := range aliases {
		if alias = strings.TrimSpace(alias); alias != "" {
			hosts[strings.ToLower(alias)] = struct{}{}
		}
	}

	return &Canonicalizer{base: base, hosts: hosts}, nil
}

// ProperURL maps actual to the base URL. It returns actual unchanged for
// hosts the canonicalizer does not own.
func (c *Canonicalizer) ProperURL(actual string) string {
	u, err := url.Parse(actual)
	if err != nil {
		return actual
	}

	if _, ok := c.hosts[strings.ToLower(u.Host)]; !ok {
		return actual
	}

	if u.Scheme == c.base.Scheme && strings.EqualFold(u.Host, c.base.Host) {
		return actual
	}

	u.Scheme = c.base.Scheme
	u.Host = c.base.Host

	return u.String()
}

// IsBase reports whether actual is the base URL itself, ignoring a trailing slash.
func (c *Canonicalizer) IsBase(actual string) bool {
	return strings.TrimRight(actual, "/") == c.base.String()
}

// Base returns the base URL without a trailing slash.
func (c *Canonicalizer) Base() string {
	return c.base.String()
}

// Middleware issues the 301.
func (c *Canonicalizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actual := ActualURL(r)

		if proper := c.ProperURL(actual); proper != actual {
			http.Redirect(w, r, proper, http.StatusMovedPermanently)

			return
		}

		next.ServeHTTP(w, r)
	})
}
