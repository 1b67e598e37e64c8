// ABOUTME: Principal value type with textual validation and key derivation
// ABOUTME: Malformed identifier text is rejected locally, before any network call

package principal

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPrincipal indicates identifier text that is not a well-formed principal.
var ErrInvalidPrincipal = errors.New("invalid principal")

// Anonymous is the well-known unauthenticated caller identity, used as the
// default before any login completes.
const Anonymous = Principal("2vxsx-fae")

// maxTextLength bounds principal text; real identifiers are far shorter.
const maxTextLength = 63

// Principal is an opaque textual identifier naming an account on the
// remote ledger. Equality is textual. It is an immutable value type:
// compared and passed, never mutated.
type Principal string

// FromText validates identifier text and returns it as a Principal.
// The accepted shape is dash-separated groups of one to five lowercase
// letters or digits, e.g. "aaaaa-aa" or "2vxsx-fae". Anything else fails
// with ErrInvalidPrincipal.
func FromText(text string) (Principal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidPrincipal)
	}
	if len(s) > maxTextLength {
		return "", fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidPrincipal, text, maxTextLength)
	}
	for _, group := range strings.Split(s, "-") {
		if len(group) == 0 || len(group) > 5 {
			return "", fmt.Errorf("%w: %q has a malformed group", ErrInvalidPrincipal, text)
		}
		for _, r := range group {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
				return "", fmt.Errorf("%w: %q contains %q", ErrInvalidPrincipal, text, r)
			}
		}
	}
	return Principal(s), nil
}

// FromPublicKey derives the principal text for an ed25519 public key.
// The derivation hashes the key and renders the prefix as dash-grouped
// lowercase base32, so a key file always implies the same principal.
func FromPublicKey(pub ed25519.PublicKey) Principal {
	sum := sha256.Sum256(pub)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	raw := strings.ToLower(enc.EncodeToString(sum[:10]))

	var groups []string
	for len(raw) > 5 {
		groups = append(groups, raw[:5])
		raw = raw[5:]
	}
	groups = append(groups, raw)
	return Principal(strings.Join(groups, "-"))
}

// String returns the principal's text.
func (p Principal) String() string {
	return string(p)
}

// IsAnonymous reports whether p is the well-known anonymous identity.
func (p Principal) IsAnonymous() bool {
	return p == Anonymous
}
