package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var (
	ErrNoToken     = errors.New("no id token")
	ErrWrongDomain = errors.New("id token is not from the login domain")
)

// Identity is the signed-in user extracted from a verified token.
type Identity struct {
	Email  string
	Domain string
}

// Verifier checks a raw ID token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ValidateFunc matches idtoken.Validate.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier validates Google-issued ID tokens for clientID and requires
// the hosted-domain claim to equal domain.
type GoogleVerifier struct {
	clientID string
	domain   string
	validate ValidateFunc
}

func NewGoogleVerifier(clientID, domain string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, domain: domain, validate: idtoken.Validate}
}

// WithValidateFunc swaps the signature check, mainly for tests.
func (v *GoogleVerifier) WithValidateFunc(fn ValidateFunc) *GoogleVerifier {
	v.validate = fn

	return v
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}

	hd, _ := payload.Claims["hd"].(string)
	if hd != v.domain {
		return nil, fmt.Errorf("%w: got %q", ErrWrongDomain, hd)
	}

	email, _ := payload.Claims["email"].(string)

	return &Identity{Email: email, Domain: hd}, nil
}

type identityKey struct{}

// ContextWithIdentity stores id in ctx.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by the login guard, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)

	return id, ok && id != nil
}

var _ Verifier = (*GoogleVerifier)(nil)
