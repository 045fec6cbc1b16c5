// Package vault implements vault creation, unlock, PIN rotation, and
// export: the orchestration layer that ties the KDF, AEAD, codec, and
// state packages together.
package vault

import (
	"runtime"

	"github.com/rsafevault/rsafe/internal/aead"
	"github.com/rsafevault/rsafe/internal/codec"
	"github.com/rsafevault/rsafe/internal/kdf"
	"github.com/rsafevault/rsafe/internal/normalize"
	"github.com/rsafevault/rsafe/internal/rng"
	"github.com/rsafevault/rsafe/internal/state"
	"github.com/rsafevault/rsafe/internal/vaulterr"
	"github.com/rsafevault/rsafe/internal/zeroize"
)

// magicAAD domain-separates wrap ciphertexts from body ciphertexts: the
// magic bytes are the associated data for every wrapped vault-key, never
// for the body.
var magicAAD = []byte(codec.MagicString)

// wrapVaultKey derives an unlock-key from secret/salt/params and wraps
// vaultKey under it, with the magic bytes as AAD. The derived unlock-key
// is always wiped before returning, on every path.
func wrapVaultKey(op string, secret, salt []byte, params kdf.Params, vaultKey []byte) (wrapNonce [codec.WrapNonceLen]byte, wrapped [codec.WrappedKeyLen]byte, err error) {
	unlockKey, derr := kdf.Derive(secret, salt, params)
	if derr != nil {
		return wrapNonce, wrapped, derr
	}
	defer zeroize.Bytes(unlockKey)

	nonce, rerr := rng.Generate(codec.WrapNonceLen)
	if rerr != nil {
		return wrapNonce, wrapped, rerr
	}
	ciphertext, eerr := aead.Encrypt(unlockKey, nonce, vaultKey, magicAAD)
	if eerr != nil {
		return wrapNonce, wrapped, vaulterr.New(op, vaulterr.Internal, eerr)
	}
	if len(ciphertext) != codec.WrappedKeyLen {
		return wrapNonce, wrapped, vaulterr.New(op, vaulterr.Internal, errWrapLength)
	}
	copy(wrapNonce[:], nonce)
	copy(wrapped[:], ciphertext)
	return wrapNonce, wrapped, nil
}

// buildMethod derives fresh salt and nonce, wraps vaultKey under secret,
// and returns the resulting UnlockMethod record.
func buildMethod(op string, id codec.MethodID, secret []byte, params kdf.Params, vaultKey []byte) (codec.UnlockMethod, error) {
	var m codec.UnlockMethod
	salt, err := rng.Generate(codec.MethodSaltLen)
	if err != nil {
		return m, err
	}
	wrapNonce, wrapped, err := wrapVaultKey(op, secret, salt, params, vaultKey)
	if err != nil {
		return m, err
	}
	m.ID = id
	m.MemoryKiB = params.MemoryKiB
	m.Iterations = params.Iterations
	m.Parallelism = uint32(params.Parallelism)
	copy(m.Salt[:], salt)
	m.WrapNonce = wrapNonce
	m.WrappedKey = wrapped
	return m, nil
}

// Create assembles a brand-new vault blob. vaultType selects Real or
// Decoy; pinSecret and recoverySecret are the two independent low-entropy
// secrets that can unlock it. On every return path the vault-key and all
// derived keys are wiped.
func Create(vaultType codec.VaultType, pinSecret, recoverySecret string, pinParams, recoveryParams kdf.Params) ([]byte, error) {
	const op = "vault.Create"

	vaultKey, err := rng.Generate(aead.KeySize)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(vaultKey)

	normPIN, err := normalize.Secret(pinSecret)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(normPIN)

	normRecovery, err := normalize.Secret(recoverySecret)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(normRecovery)

	pinMethod, err := buildMethod(op, codec.MethodPIN, normPIN, pinParams, vaultKey)
	if err != nil {
		return nil, err
	}
	recoveryMethod, err := buildMethod(op, codec.MethodRecovery, normRecovery, recoveryParams, vaultKey)
	if err != nil {
		return nil, err
	}

	headerSalt, err := rng.Generate(codec.HeaderSaltLen)
	if err != nil {
		return nil, err
	}

	h := codec.Header{
		Version:   codec.HeaderVersion,
		Flags:     0,
		VaultType: vaultType,
		PIN:       pinMethod,
		Recovery:  recoveryMethod,
	}
	copy(h.HeaderSalt[:], headerSalt)
	headerBytes := codec.EncodeHeader(h)

	freshState := state.New()
	body, err := state.Encode(freshState)
	if err != nil {
		return nil, err
	}

	bodyNonce, err := rng.Generate(codec.BodyNonceLen)
	if err != nil {
		return nil, err
	}
	ciphertext, err := aead.Encrypt(vaultKey, bodyNonce, body, headerBytes)
	if err != nil {
		return nil, vaulterr.New(op, vaulterr.Internal, err)
	}

	return codec.Assemble(headerBytes, bodyNonce, ciphertext), nil
}

// tryUnwrap attempts to unwrap a vault-key from one method using secret.
// It returns ok=false (never an error) on any authentication failure, so
// the caller can try the next method without leaking which one almost
// matched.
func tryUnwrap(m codec.UnlockMethod, secret []byte) (vaultKey []byte, ok bool) {
	params := kdf.Params{MemoryKiB: m.MemoryKiB, Iterations: m.Iterations, Parallelism: uint8(m.Parallelism)}
	unlockKey, err := kdf.Derive(secret, m.Salt[:], params)
	if err != nil {
		return nil, false
	}
	defer zeroize.Bytes(unlockKey)

	key, err := aead.Decrypt(unlockKey, m.WrapNonce[:], m.WrappedKey[:], magicAAD)
	if err != nil {
		return nil, false
	}
	return key, true
}

// Unlock opens a vault blob with either its PIN or its recovery secret.
// It tries PIN then Recovery (header order) and stops at the first
// method that authenticates; if neither does, it fails with the same
// AuthFailed error a corrupted body would also produce.
func Unlock(blob []byte, secret string) (*Handle, error) {
	const op = "vault.Unlock"

	headerBytes, bodyNonce, bodyCiphertext, err := codec.Split(blob)
	if err != nil {
		return nil, err
	}
	header, err := codec.DecodeHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	normSecret, err := normalize.Secret(secret)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(normSecret)

	var vaultKey []byte
	for _, m := range []codec.UnlockMethod{header.PIN, header.Recovery} {
		if key, ok := tryUnwrap(m, normSecret); ok {
			vaultKey = key
			break
		}
	}
	if vaultKey == nil {
		return nil, vaulterr.AuthFailure(op)
	}

	body, err := aead.Decrypt(vaultKey, bodyNonce, bodyCiphertext, headerBytes)
	if err != nil {
		zeroize.Bytes(vaultKey)
		return nil, vaulterr.AuthFailure(op)
	}

	decoded, err := state.Decode(body)
	if err != nil {
		zeroize.Bytes(vaultKey)
		return nil, err
	}

	h := &Handle{
		key:       vaultKey,
		state:     decoded,
		header:    header,
		lifecycle: lifecycleUnlocked,
	}
	runtime.SetFinalizer(h, (*Handle).Lock)
	return h, nil
}
