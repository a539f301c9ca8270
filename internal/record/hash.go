package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without colliding with
// old hashes.
const (
	DomainTransformation = "spvfuzz/transformation/v1"
	DomainFact           = "spvfuzz/fact/v1"
	DomainModule         = "spvfuzz/module/v1"
)

// HashBytes computes SHA-256 over domain + 0x00 + data.
// The separator keeps the domain/data boundary unambiguous.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content hash of v under domain.
func Hash(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashBytes(domain, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when v is known to be valid.
func MustHash(domain string, v Value) string {
	h, err := Hash(domain, v)
	if err != nil {
		panic(err)
	}
	return h
}
