// Package kdf derives fixed-length keys from low-entropy secrets with
// Argon2id. It is the only CPU-intensive operation in the core and may
// block for hundreds of milliseconds; callers keep it off latency-sensitive
// paths.
package kdf

import (
	"golang.org/x/crypto/argon2"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

// OutputLen is the fixed size, in bytes, of every derived key.
const OutputLen = 32

// Params holds the caller-chosen Argon2id cost parameters.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams is the documented default cost for new vaults.
var DefaultParams = Params{MemoryKiB: 65536, Iterations: 3, Parallelism: 1}

// Validate rejects parameter combinations Argon2id itself would reject,
// surfacing them as a Kdf error before any derivation is attempted.
func (p Params) Validate() error {
	if p.MemoryKiB < 8*uint32(p.Parallelism) {
		return vaulterr.New("kdf.Params.Validate", vaulterr.Kdf, errMemoryTooLow)
	}
	if p.Iterations < 1 {
		return vaulterr.New("kdf.Params.Validate", vaulterr.Kdf, errIterationsTooLow)
	}
	if p.Parallelism < 1 {
		return vaulterr.New("kdf.Params.Validate", vaulterr.Kdf, errParallelismTooLow)
	}
	return nil
}

// Derive runs Argon2id version 1.3 over secret/salt with params, producing
// OutputLen bytes. secret and salt are read-only; the caller owns wiping
// secret after the call returns.
func Derive(secret, salt []byte, params Params) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	key := argon2.IDKey(secret, salt, params.Iterations, params.MemoryKiB, params.Parallelism, OutputLen)
	return key, nil
}
