package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSigningSecret = "super-secret"
	testIssuer        = "jotter-auth"
	testAudience      = "jotter-api"
	testUserID        = "user-123"
)

func newTestCodec(t *testing.T, secret string, clock func() time.Time) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(TokenCodecConfig{
		SigningSecret: []byte(secret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		TokenTTL:      DefaultTokenTTL,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return codec
}

func TestTokenCodecIssuesTokens(t *testing.T) {
	issuedAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSigningSecret, func() time.Time { return issuedAt })

	issued, err := codec.Issue(testUserID)
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}
	if !issued.ExpiresAt.Equal(issuedAt.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %s", issued.ExpiresAt)
	}
	if issued.ExpiresIn() != int64((24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expires in %d", issued.ExpiresIn())
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	_, err = parser.ParseWithClaims(issued.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSigningSecret), nil
	})
	if err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}
	if claims.Subject != testUserID {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != testIssuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != testAudience {
		t.Fatalf("unexpected audience %#v", claims.Audience)
	}
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t, testSigningSecret, nil)

	issued, err := codec.Issue(testUserID)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}
	subject, err := codec.Verify(issued.Value)
	if err != nil {
		t.Fatalf("expected verification success: %v", err)
	}
	if subject != testUserID {
		t.Fatalf("unexpected subject %s", subject)
	}
}

func TestTokenCodecRejectsExpiredTokens(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSigningSecret, func() time.Time { return now })

	issued, err := codec.Issue(testUserID)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	now = now.Add(24*time.Hour + time.Second)
	if _, err := codec.Verify(issued.Value); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenCodecAcceptsTokensJustBeforeExpiry(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSigningSecret, func() time.Time { return now })

	issued, err := codec.Issue(testUserID)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	now = now.Add(24*time.Hour - time.Second)
	if _, err := codec.Verify(issued.Value); err != nil {
		t.Fatalf("expected token to remain valid, got %v", err)
	}
}

func TestTokenCodecRejectsTokensAtExactExpiry(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, testSigningSecret, func() time.Time { return now })

	issued, err := codec.Issue(testUserID)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	now = issued.ExpiresAt
	if _, err := codec.Verify(issued.Value); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at the exp instant, got %v", err)
	}
}

func TestTokenCodecRejectsForeignSignature(t *testing.T) {
	issuer := newTestCodec(t, "other-secret", nil)
	verifier := newTestCodec(t, testSigningSecret, nil)

	issued, err := issuer.Issue(testUserID)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}
	if _, err := verifier.Verify(issued.Value); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenCodecRejectsMalformedTokens(t *testing.T) {
	codec := newTestCodec(t, testSigningSecret, nil)
	for _, raw := range []string{"", "invalid.token", "a.b.c"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature for %q, got %v", raw, err)
		}
	}
}

func TestTokenCodecRejectsOtherAlgorithms(t *testing.T) {
	codec := newTestCodec(t, testSigningSecret, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   testUserID,
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSigningSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	if _, err := codec.Verify(signed); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenCodecRequiresSubject(t *testing.T) {
	codec := newTestCodec(t, testSigningSecret, nil)
	if _, err := codec.Issue("  "); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}

func TestNewTokenCodecValidatesConfig(t *testing.T) {
	testCases := []struct {
		name    string
		config  TokenCodecConfig
		wantErr error
	}{
		{
			name:    "missing-secret",
			config:  TokenCodecConfig{Issuer: testIssuer, Audience: testAudience, TokenTTL: time.Hour},
			wantErr: ErrMissingSigningSecret,
		},
		{
			name:    "missing-issuer",
			config:  TokenCodecConfig{SigningSecret: []byte("secret"), Audience: testAudience, TokenTTL: time.Hour},
			wantErr: ErrMissingTokenIssuer,
		},
		{
			name:    "blank-audience",
			config:  TokenCodecConfig{SigningSecret: []byte("secret"), Issuer: testIssuer, Audience: " ", TokenTTL: time.Hour},
			wantErr: ErrMissingTokenAudience,
		},
		{
			name:    "non-positive-ttl",
			config:  TokenCodecConfig{SigningSecret: []byte("secret"), Issuer: testIssuer, Audience: testAudience},
			wantErr: ErrInvalidTokenTTL,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := NewTokenCodec(testCase.config); !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
		})
	}
}
