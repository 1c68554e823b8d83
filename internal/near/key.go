package near

import (
	"crypto/ed25519"
	"strings"

	"github.com/mr-tron/base58"

	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// ed25519Prefix is the curve prefix of NEAR's textual key encoding.
const ed25519Prefix = "ed25519:"

// PublicKey is an ed25519 public key in NEAR's "ed25519:<base58>" encoding.
type PublicKey struct {
	key ed25519.PublicKey
}

// NewPublicKey wraps a raw ed25519 public key.
func NewPublicKey(key ed25519.PublicKey) (PublicKey, error) {
	if len(key) != ed25519.PublicKeySize {
		return PublicKey{}, connerr.ErrInvalidPublicKey
	}
	cp := make(ed25519.PublicKey, len(key))
	copy(cp, key)
	return PublicKey{key: cp}, nil
}

// ParsePublicKey parses "ed25519:<base58>". A key without a curve prefix is
// accepted as ed25519 for compatibility with older wallets.
func ParsePublicKey(s string) (PublicKey, error) {
	encoded := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		if s[:idx+1] != ed25519Prefix {
			return PublicKey{}, connerr.WithDetails(connerr.ErrInvalidPublicKey, map[string]string{
				"reason": "unsupported curve " + s[:idx],
			})
		}
		encoded = s[idx+1:]
	}

	raw, err := base58.Decode(encoded)
	if err != nil {
		return PublicKey{}, connerr.WithCause(connerr.ErrInvalidPublicKey, err)
	}
	return NewPublicKey(raw)
}

// String returns the NEAR textual encoding.
func (p PublicKey) String() string {
	return ed25519Prefix + base58.Encode(p.key)
}

// Bytes returns the raw key.
func (p PublicKey) Bytes() ed25519.PublicKey {
	return p.key
}
