// Package acme answers Let's Encrypt HTTP-01 challenges from tokens
// provisioned through the environment.
package acme

import (
	"os"
	"strings"
)

const (
	tokenVar    = "ACME_TOKEN"
	keyVar      = "ACME_KEY"
	tokenPrefix = "ACME_TOKEN_"
	keyPrefix   = "ACME_KEY_"
)

// Keys maps challenge tokens to key authorizations. Besides the single
// ACME_TOKEN/ACME_KEY pair, numbered pairs ACME_TOKEN_<n>/ACME_KEY_<n> allow
// several domains to be validated at once.
type Keys struct {
	env map[string]string
}

// FromEnviron reads keys from environ, formatted like os.Environ.
func FromEnviron(environ []string) *Keys {
	env := make(map[string]string, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}

	return &Keys{env: env}
}

// FromOS reads keys from the process environment.
func FromOS() *Keys {
	return FromEnviron(os.Environ())
}

// Find returns the key for token. The unnumbered pair is checked first.
func (k *Keys) Find(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	if t, ok := k.env[tokenVar]; ok && t == token {
		key, ok := k.env[keyVar]

		return key, ok
	}

	for name, value := range k.env {
		if value != token || !strings.HasPrefix(name, tokenPrefix) {
			continue
		}

		n := strings.TrimPrefix(name, tokenPrefix)
		if key, ok := k.env[keyPrefix+n]; ok {
			return key, true
		}
	}

	return "", false
}
