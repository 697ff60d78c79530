package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const bearerScheme = "bearer"

var (
	ErrMissingTokenVerifier    = errors.New("auth: token verifier required")
	ErrMissingIdentityResolver = errors.New("auth: identity resolver required")
	// ErrMissingToken indicates the Authorization header is absent or not a bearer credential.
	ErrMissingToken = errors.New("auth: bearer token required")
	// ErrInvalidToken indicates the bearer token failed verification for any reason.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrUnknownUser indicates the token subject no longer resolves to a user.
	ErrUnknownUser = errors.New("auth: unknown user")
)

// Identity is the authenticated caller. It never carries credential material.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// TokenVerifier verifies a raw token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// IdentityResolver loads the identity for a user id, failing with ErrUnknownUser when absent.
type IdentityResolver interface {
	LookupIdentity(ctx context.Context, userID string) (Identity, error)
}

// GateConfig wires the gate collaborators.
type GateConfig struct {
	Verifier TokenVerifier
	Resolver IdentityResolver
}

// Gate turns an Authorization header into an authenticated Identity.
type Gate struct {
	verifier TokenVerifier
	resolver IdentityResolver
}

// NewGate constructs a Gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Verifier == nil {
		return nil, ErrMissingTokenVerifier
	}
	if cfg.Resolver == nil {
		return nil, ErrMissingIdentityResolver
	}
	return &Gate{verifier: cfg.Verifier, resolver: cfg.Resolver}, nil
}

// Authenticate validates the bearer credential in header and resolves its owner.
//
// Signature and expiry failures are both reported as ErrInvalidToken; the
// underlying cause stays in the chain for logging.
func (g *Gate) Authenticate(ctx context.Context, header string) (Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return Identity{}, ErrMissingToken
	}

	userID, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	identity, err := g.resolver.LookupIdentity(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return Identity{}, ErrUnknownUser
		}
		return Identity{}, fmt.Errorf("auth: resolve identity: %w", err)
	}
	return identity, nil
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
