// Package aead wraps XChaCha20-Poly1305 authenticated encryption. There is
// no streaming interface; every payload is sealed or opened as a single
// message, and any transformation of the associated data between encrypt
// and decrypt invalidates the tag.
package aead

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

const (
	// KeySize is the XChaCha20-Poly1305 key size in bytes.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the XChaCha20-Poly1305 (extended-nonce) nonce size in bytes.
	NonceSize = chacha20poly1305.NonceSizeX
	// TagSize is the Poly1305 authentication tag size in bytes.
	TagSize = chacha20poly1305.Overhead
)

// Encrypt seals plaintext under key/nonce, binding aad to the resulting tag.
// The returned slice is ciphertext‖tag.
func Encrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, vaulterr.New("aead.Encrypt", vaulterr.Internal, errBadNonceSize)
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// Decrypt opens ciphertext‖tag under key/nonce, verifying it against aad.
// Any mismatch — of key, nonce, ciphertext, or aad — is reported uniformly
// as a vaulterr.AuthFailed error.
func Decrypt(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, vaulterr.AuthFailure("aead.Decrypt")
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, vaulterr.AuthFailure("aead.Decrypt")
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, vaulterr.New("aead.newAEAD", vaulterr.Internal, errBadKeySize)
	}
	a, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, vaulterr.New("aead.newAEAD", vaulterr.Internal, err)
	}
	return a, nil
}
