// Package vaulterr defines the closed set of error kinds the vault core
// surfaces to callers. One kind per failed operation; no retries.
package vaulterr

import "errors"

// Kind identifies which of the taxonomy's buckets an error belongs to.
type Kind int

const (
	// InvalidInput covers empty/whitespace-only secrets, malformed UUIDs,
	// and unknown entry ids.
	InvalidInput Kind = iota
	// BadFormat covers anything that makes the input not a vault at all.
	BadFormat
	// AuthFailed deliberately conflates wrong secret, corrupted wrapped
	// key, and corrupted body so callers cannot tell them apart.
	AuthFailed
	// Kdf covers parameters rejected by the memory-hard function.
	Kdf
	// Codec covers payload decode failure after body decryption.
	Codec
	// Rng covers entropy source failure.
	Rng
	// Internal covers invariant violations that indicate a bug.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case BadFormat:
		return "BadFormat"
	case AuthFailed:
		return "AuthFailed"
	case Kdf:
		return "Kdf"
	case Codec:
		return "Codec"
	case Rng:
		return "Rng"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// BadFormatReason distinguishes why a blob or header failed to parse,
// without changing the Kind a caller sees via errors.Is.
type BadFormatReason int

const (
	ReasonTooShort BadFormatReason = iota
	ReasonBadMagic
	ReasonUnsupportedVersion
	ReasonUnknownVaultType
	ReasonUnknownMethod
	ReasonWrongMethodCount
	ReasonLengthMismatch
)

func (r BadFormatReason) String() string {
	switch r {
	case ReasonTooShort:
		return "blob shorter than minimum size"
	case ReasonBadMagic:
		return "magic bytes do not match"
	case ReasonUnsupportedVersion:
		return "unsupported header version"
	case ReasonUnknownVaultType:
		return "unknown vault type byte"
	case ReasonUnknownMethod:
		return "unknown unlock method id"
	case ReasonWrongMethodCount:
		return "wrong method count"
	case ReasonLengthMismatch:
		return "header declared length does not match parsed length"
	default:
		return "malformed header"
	}
}

// Error is the concrete error type every core operation returns. It
// carries a Kind (the dimension callers may branch on) and wraps the
// underlying cause for %w unwrapping.
type Error struct {
	Kind   Kind
	Reason BadFormatReason // only meaningful when Kind == BadFormat
	Op     string          // operation that failed, e.g. "vault.Create"
	Err    error           // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Kind == BadFormat {
		msg += " (" + e.Reason.String() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, vaulterr.ErrAuthFailed) style checks by treating
// a Kind sentinel as a target that any *Error of that Kind satisfies.
func (e *Error) Is(target error) bool {
	if k, ok := target.(kindSentinel); ok {
		return e.Kind == Kind(k)
	}
	return false
}

// kindSentinel lets a Kind act as an errors.Is target, e.g.
// errors.Is(err, vaulterr.ErrAuthFailed).
type kindSentinel Kind

func (k kindSentinel) Error() string { return Kind(k).String() }

// Sentinels usable directly with errors.Is.
var (
	ErrInvalidInput error = kindSentinel(InvalidInput)
	ErrBadFormat    error = kindSentinel(BadFormat)
	ErrAuthFailed   error = kindSentinel(AuthFailed)
	ErrKdf          error = kindSentinel(Kdf)
	ErrCodec        error = kindSentinel(Codec)
	ErrRng          error = kindSentinel(Rng)
	ErrInternal     error = kindSentinel(Internal)
)

// New builds an *Error for the given op/kind, wrapping cause if non-nil.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

// NewBadFormat builds a BadFormat error with a specific sub-reason.
func NewBadFormat(op string, reason BadFormatReason) *Error {
	return &Error{Op: op, Kind: BadFormat, Reason: reason, Err: errors.New(reason.String())}
}

// AuthFailure returns a fresh AuthFailed error with a fixed message; every
// unlock failure path returns one built for the same op, regardless of
// cause, so the error's shape never leaks which method (if any) almost
// matched.
func AuthFailure(op string) *Error {
	return &Error{Op: op, Kind: AuthFailed, Err: errors.New("authentication failed")}
}
