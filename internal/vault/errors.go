package vault

import "errors"

var (
	errWrapLength      = errors.New("wrapped key ciphertext is not 48 bytes")
	errEntryNotFound   = errors.New("entry not found")
	errHandleDestroyed = errors.New("handle is locked/destroyed")
)
