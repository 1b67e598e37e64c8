// ABOUTME: Ed25519-backed Identity with a derived principal and bearer token signing
// ABOUTME: Tokens are short-lived EdDSA JWTs carrying the principal as subject

package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/2389/hero-console/internal/principal"
)

// TokenTTL is the lifetime of a signed bearer token. Kept short so a
// leaked token ages out quickly.
const TokenTTL = 5 * time.Minute

// Identity is an ed25519 keypair together with its derived principal.
// It is the unit the ledger channel binds to when signing calls.
type Identity struct {
	principal principal.Principal
	key       ed25519.PrivateKey
}

// Generate creates a fresh random identity.
func Generate() (*Identity, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating identity key: %w", err)
	}
	return FromPrivateKey(key), nil
}

// FromPrivateKey wraps an existing ed25519 private key as an Identity.
func FromPrivateKey(key ed25519.PrivateKey) *Identity {
	pub := key.Public().(ed25519.PublicKey)
	return &Identity{
		principal: principal.FromPublicKey(pub),
		key:       key,
	}
}

// FromSeed builds a deterministic identity from a 32-byte seed.
func FromSeed(seed []byte) *Identity {
	return FromPrivateKey(ed25519.NewKeyFromSeed(seed))
}

// Principal returns the identity's derived principal.
func (id *Identity) Principal() principal.Principal {
	return id.principal
}

// PublicKey returns the identity's public key.
func (id *Identity) PublicKey() ed25519.PublicKey {
	return id.key.Public().(ed25519.PublicKey)
}

// PrivateKey returns the raw private key, for keystore serialization.
func (id *Identity) PrivateKey() ed25519.PrivateKey {
	return id.key
}

// BearerToken signs a short-lived token identifying the caller to the
// ledger. The subject claim carries the principal text and each token
// gets a unique jti for server-side replay tracking.
func (id *Identity) BearerToken(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   id.principal.String(),
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(id.key)
	if err != nil {
		return "", fmt.Errorf("signing bearer token: %w", err)
	}
	return signed, nil
}
