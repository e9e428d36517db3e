// Package jwt issues and verifies HMAC-signed tokens whose signing secret
// follows the live configuration: the secret is fetched through a provider on
// every sign and verify, so a rotation invalidates outstanding tokens without
// a restart.
package jwt

import (
	"context"
	"time"
)

// SecretProvider returns the current signing secret. It is consulted per
// operation and must be safe for concurrent use.
type SecretProvider func() []byte

// Options configures the token manager.
type Options struct {
	// Secret supplies the HMAC key. Must yield at least 32 bytes.
	Secret SecretProvider

	// Algorithm is "HS256" (default), "HS384" or "HS512".
	Algorithm string

	// TTL is the default token lifetime applied when claims carry no
	// explicit expiry.
	TTL time.Duration

	Issuer   string
	Audience []string
}

// Claims are the registered claims carried by issued tokens.
type Claims struct {
	Subject   string
	ID        string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	NotBefore time.Time
}

// TokenManager is the interface consumers depend on for token operations.
// Implementations must be safe for concurrent use.
type TokenManager interface {
	// Sign issues a token for the given claims with the current secret.
	Sign(ctx context.Context, claims Claims) (string, error)

	// Verify validates a token against the current secret and returns its
	// claims.
	Verify(ctx context.Context, token string) (*Claims, error)
}
