package aead

import "errors"

var (
	errBadKeySize   = errors.New("key must be 32 bytes")
	errBadNonceSize = errors.New("nonce must be 24 bytes")
)
