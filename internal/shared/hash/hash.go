// Package hash provides argon2id hashing whose salt and key length follow
// the live configuration: parameters are re-read through a provider on every
// call, so a salt rotation applies to all subsequent hashes immediately.
// Previously produced hashes stay verifiable because the salt and parameters
// are embedded in the encoded form.
package hash

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the argon2id inputs for new hashes.
type Params struct {
	// Salt seeds the derivation. Must not be empty.
	Salt []byte

	// KeyLength is the derived key size in bytes.
	KeyLength uint32

	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// ParamsProvider returns the parameters to use for the next hash. It is
// consulted per call so rotated configuration takes effect live.
type ParamsProvider func() Params

// Hasher is the interface consumers depend on for hashing secrets.
// Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash derives an encoded, self-describing hash of plaintext.
	Hash(ctx context.Context, plaintext string) (string, error)

	// Compare verifies plaintext against a previously encoded hash.
	Compare(ctx context.Context, encoded, plaintext string) error
}

var _ Hasher = (*argon2Hasher)(nil)

type argon2Hasher struct {
	params ParamsProvider
}

// New creates an argon2id Hasher reading its parameters from provider.
func New(provider ParamsProvider) (Hasher, error) {
	if provider == nil {
		return nil, fmt.Errorf("hash: params provider must not be nil")
	}
	return &argon2Hasher{params: provider}, nil
}

func normalize(p Params) (Params, error) {
	if len(p.Salt) == 0 {
		return p, fmt.Errorf("hash: salt must not be empty")
	}
	if p.KeyLength == 0 {
		p.KeyLength = 32
	}
	if p.Time == 0 {
		p.Time = 1
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = 64 * 1024
	}
	if p.Threads == 0 {
		p.Threads = 4
	}
	return p, nil
}

func (h *argon2Hasher) Hash(_ context.Context, plaintext string) (string, error) {
	p, err := normalize(h.params())
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), p.Salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLength)

	return fmt.Sprintf(
		"argon2id$v=%d$t=%d,m=%d,p=%d$%s$%s",
		argon2.Version,
		p.Time, p.MemoryKiB, p.Threads,
		base64.RawStdEncoding.EncodeToString(p.Salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *argon2Hasher) Compare(_ context.Context, encoded, plaintext string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return fmt.Errorf("hash: malformed encoded hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil {
		return fmt.Errorf("hash: malformed version segment: %w", err)
	}
	if version != argon2.Version {
		return fmt.Errorf("hash: unsupported argon2 version %d", version)
	}

	var timeCost, memory uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "t=%d,m=%d,p=%d", &timeCost, &memory, &threads); err != nil {
		return fmt.Errorf("hash: malformed parameters segment: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return fmt.Errorf("hash: malformed salt segment: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("hash: malformed key segment: %w", err)
	}

	got := argon2.IDKey([]byte(plaintext), salt, timeCost, memory, threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return fmt.Errorf("hash: comparison failed")
	}
	return nil
}
