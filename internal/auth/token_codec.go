package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingSigningSecret = errors.New("auth: signing secret must be provided")
	ErrMissingTokenIssuer   = errors.New("auth: token issuer must be provided")
	ErrMissingTokenAudience = errors.New("auth: token audience must be provided")
	ErrInvalidTokenTTL      = errors.New("auth: token ttl must be positive")
	ErrMissingSubject       = errors.New("auth: subject must be provided")
	// ErrInvalidSignature reports a token that is malformed or whose signature does not verify.
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	// ErrTokenExpired reports a token whose expiry has elapsed.
	ErrTokenExpired = errors.New("auth: token expired")
)

// TokenCodecConfig configures the session token codec.
type TokenCodecConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// IssuedToken is a signed token together with its expiry.
type IssuedToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn returns the token lifetime in whole seconds.
func (t IssuedToken) ExpiresIn() int64 {
	return int64(t.ExpiresAt.Sub(t.IssuedAt).Seconds())
}

// TokenCodec issues and verifies HS256 session tokens carrying a user id as subject.
type TokenCodec struct {
	signingSecret []byte
	issuer        string
	audience      string
	ttl           time.Duration
	clock         func() time.Time
}

// NewTokenCodec validates the configuration and constructs a TokenCodec.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, ErrMissingTokenIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, ErrMissingTokenAudience
	}
	if cfg.TokenTTL <= 0 {
		return nil, ErrInvalidTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenCodec{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		audience:      audience,
		ttl:           cfg.TokenTTL,
		clock:         clock,
	}, nil
}

// Issue produces a signed token for userID that expires after the configured TTL.
func (c *TokenCodec) Issue(userID string) (IssuedToken, error) {
	subject := strings.TrimSpace(userID)
	if subject == "" {
		return IssuedToken{}, ErrMissingSubject
	}

	now := c.clock().UTC().Truncate(jwt.TimePrecision)
	expiresAt := now.Add(c.ttl)

	registered := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    c.issuer,
		Audience:  jwt.ClaimStrings{c.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, registered).SignedString(c.signingSecret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: signed, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature and expiry of tokenString and returns the embedded user id.
// Expiry is inclusive: a token is rejected from the instant the clock reaches its exp claim.
func (c *TokenCodec) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		strings.TrimSpace(tokenString),
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return c.signingSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(c.audience),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if parsed == nil || !parsed.Valid {
		return "", ErrInvalidSignature
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
