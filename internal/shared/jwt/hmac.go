package jwt

import (
	"context"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var _ TokenManager = (*hmacManager)(nil)

type hmacManager struct {
	secret   SecretProvider
	method   jwtlib.SigningMethod
	issuer   string
	audience []string
	ttl      time.Duration
}

// NewHMAC creates an HMAC-based TokenManager. The secret provider is called
// on every operation so the key can rotate underneath the manager; each
// yielded secret must be at least 32 bytes.
func NewHMAC(opts Options) (TokenManager, error) {
	if opts.Secret == nil {
		return nil, fmt.Errorf("jwt: secret provider must not be nil")
	}

	method, err := resolveHMACMethod(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	return &hmacManager{
		secret:   opts.Secret,
		method:   method,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      opts.TTL,
	}, nil
}

func resolveHMACMethod(alg string) (jwtlib.SigningMethod, error) {
	switch alg {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("jwt: unsupported HMAC algorithm %q", alg)
	}
}

func (m *hmacManager) currentSecret() ([]byte, error) {
	secret := m.secret()
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt: HMAC secret must be at least 32 bytes, got %d", len(secret))
	}
	return secret, nil
}

func (m *hmacManager) Sign(_ context.Context, claims Claims) (string, error) {
	secret, err := m.currentSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()

	registered := jwtlib.RegisteredClaims{
		Subject: claims.Subject,
		ID:      claims.ID,
	}

	// Defaults come from Options, per-call claims override them.
	if claims.Issuer != "" {
		registered.Issuer = claims.Issuer
	} else {
		registered.Issuer = m.issuer
	}

	if claims.Audience != nil {
		registered.Audience = jwtlib.ClaimStrings(claims.Audience)
	} else if m.audience != nil {
		registered.Audience = jwtlib.ClaimStrings(m.audience)
	}

	if !claims.IssuedAt.IsZero() {
		registered.IssuedAt = jwtlib.NewNumericDate(claims.IssuedAt)
	} else {
		registered.IssuedAt = jwtlib.NewNumericDate(now)
	}

	if !claims.ExpiresAt.IsZero() {
		registered.ExpiresAt = jwtlib.NewNumericDate(claims.ExpiresAt)
	} else if m.ttl > 0 {
		registered.ExpiresAt = jwtlib.NewNumericDate(now.Add(m.ttl))
	}

	if !claims.NotBefore.IsZero() {
		registered.NotBefore = jwtlib.NewNumericDate(claims.NotBefore)
	}

	token := jwtlib.NewWithClaims(m.method, registered)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwt: failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *hmacManager) Verify(_ context.Context, tokenString string) (*Claims, error) {
	secret, err := m.currentSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwtlib.ParseWithClaims(
		tokenString,
		&jwtlib.RegisteredClaims{},
		func(token *jwtlib.Token) (any, error) {
			if token.Method.Alg() != m.method.Alg() {
				return nil, fmt.Errorf("jwt: unexpected signing method %q", token.Method.Alg())
			}
			return secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("jwt: token validation failed: %w", err)
	}

	registered, ok := token.Claims.(*jwtlib.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("jwt: token claims are invalid")
	}

	claims := &Claims{
		Subject:  registered.Subject,
		ID:       registered.ID,
		Issuer:   registered.Issuer,
		Audience: registered.Audience,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	if registered.NotBefore != nil {
		claims.NotBefore = registered.NotBefore.Time
	}
	return claims, nil
}
