// Package rng wraps the operating system's CSPRNG for salts, nonces, and
// keys. Entropy failure is fatal: it surfaces as a vaulterr.Rng error and
// is never retried with a weaker source.
package rng

import (
	"crypto/rand"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

// Generate returns n cryptographically random bytes.
func Generate(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := Fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Fill overwrites buf entirely with cryptographically random bytes.
func Fill(buf []byte) error {
	if _, err := rand.Read(buf); err != nil {
		return vaulterr.New("rng.Fill", vaulterr.Rng, err)
	}
	return nil
}
