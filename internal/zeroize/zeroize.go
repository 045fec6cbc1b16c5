// Package zeroize provides an unconditional, compiler-elision-resistant
// overwrite for buffers holding secret material. "Zeroize on drop" is a
// contract every handle and every intermediate key copy must honor on all
// exit paths, not a language feature.
package zeroize

import "crypto/subtle"

// Bytes overwrites b with zeros. The subtle.ConstantTimeCompare call after
// the loop acts as a compiler barrier so the dead store can't be elided.
func Bytes(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	dummy := make([]byte, len(b))
	subtle.ConstantTimeCompare(b, dummy)
}
