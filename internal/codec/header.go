// Package codec writes and parses the vault blob's binary framing:
// the fixed 234-byte header, its two unlock-method records, and the blob
// split into header / body nonce / body ciphertext. All multi-byte
// integers are little-endian. The parser is total over bounded input —
// it never panics on malformed bytes — and the writer is the exact
// inverse of the parser on valid headers.
package codec

import (
	"encoding/binary"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

// VaultType identifies whether a vault is the real one or a decoy.
type VaultType byte

const (
	VaultTypeReal  VaultType = 0x01
	VaultTypeDecoy VaultType = 0x02
)

// MethodID identifies which secret a method record unlocks with.
type MethodID byte

const (
	MethodPIN      MethodID = 0x01
	MethodRecovery MethodID = 0x02
)

const (
	// MagicString is the fixed 8-byte header prefix identifying a rsafe blob.
	MagicString = "RSAFEV1\x00"

	HeaderVersion = uint16(0x0001)
	KDFArgon2id   = byte(0x01)
	AEADXChaCha   = byte(0x01)
	MethodCount   = byte(0x02)

	HeaderSaltLen = 16
	MethodSaltLen = 16
	WrapNonceLen  = 24
	WrappedKeyLen = 48 // 32-byte key ciphertext + 16-byte tag

	MethodRecordSize = 1 + 4 + 4 + 4 + MethodSaltLen + WrapNonceLen + WrappedKeyLen // 101
	HeaderPrefixSize = 8 + 2 + 2 + 1 + 1 + 1 + 1 + HeaderSaltLen                    // 32
	HeaderSize       = HeaderPrefixSize + int(MethodCount)*MethodRecordSize         // 234

	BodyNonceLen = 24
	// MinBlobLen is the shortest a blob can be before it is structurally
	// malformed: header plus body nonce. Anything under 258 bytes is
	// rejected outright, independent of whether the remaining bytes
	// could even hold an AEAD tag.
	MinBlobLen = HeaderSize + BodyNonceLen // 258
)

// UnlockMethod is one PIN-or-Recovery unlock record inside the header.
type UnlockMethod struct {
	ID          MethodID
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint32
	Salt        [MethodSaltLen]byte
	WrapNonce   [WrapNonceLen]byte
	WrappedKey  [WrappedKeyLen]byte
}

// Header is the fixed 234-byte vault header: a prefix plus exactly two
// UnlockMethod records, PIN first then Recovery.
type Header struct {
	Version    uint16
	Flags      uint16
	VaultType  VaultType
	HeaderSalt [HeaderSaltLen]byte
	PIN        UnlockMethod
	Recovery   UnlockMethod
}

func encodeMethod(dst []byte, m UnlockMethod) {
	dst[0] = byte(m.ID)
	binary.LittleEndian.PutUint32(dst[1:5], m.MemoryKiB)
	binary.LittleEndian.PutUint32(dst[5:9], m.Iterations)
	binary.LittleEndian.PutUint32(dst[9:13], m.Parallelism)
	copy(dst[13:29], m.Salt[:])
	copy(dst[29:53], m.WrapNonce[:])
	copy(dst[53:101], m.WrappedKey[:])
}

func decodeMethod(src []byte) (UnlockMethod, error) {
	var m UnlockMethod
	id := MethodID(src[0])
	if id != MethodPIN && id != MethodRecovery {
		return m, vaulterr.NewBadFormat("codec.decodeMethod", vaulterr.ReasonUnknownMethod)
	}
	m.ID = id
	m.MemoryKiB = binary.LittleEndian.Uint32(src[1:5])
	m.Iterations = binary.LittleEndian.Uint32(src[5:9])
	m.Parallelism = binary.LittleEndian.Uint32(src[9:13])
	copy(m.Salt[:], src[13:29])
	copy(m.WrapNonce[:], src[29:53])
	copy(m.WrappedKey[:], src[53:101])
	return m, nil
}

// EncodeHeader serializes h into exactly HeaderSize bytes.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], []byte(MagicString))
	binary.LittleEndian.PutUint16(buf[8:10], h.Version)
	binary.LittleEndian.PutUint16(buf[10:12], h.Flags)
	buf[12] = byte(h.VaultType)
	buf[13] = KDFArgon2id
	buf[14] = AEADXChaCha
	buf[15] = MethodCount
	copy(buf[16:32], h.HeaderSalt[:])
	encodeMethod(buf[32:133], h.PIN)
	encodeMethod(buf[133:234], h.Recovery)
	return buf
}

// DecodeHeader parses exactly HeaderSize bytes produced by EncodeHeader.
// It never panics: every malformed case returns a BadFormat sub-reason
// naming the failed check (an unknown kdf_id or aead_id is reported as
// an unsupported version).
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) != HeaderSize {
		return h, vaulterr.NewBadFormat("codec.DecodeHeader", vaulterr.ReasonLengthMismatch)
	}
	if string(buf[0:8]) != MagicString {
		return h, vaulterr.NewBadFormat("codec.DecodeHeader", vaulterr.ReasonBadMagic)
	}
	version := binary.LittleEndian.Uint16(buf[8:10])
	if version != HeaderVersion {
		return h, vaulterr.NewBadFormat("codec.DecodeHeader", vaulterr.ReasonUnsupportedVersion)
	}
	flags := binary.LittleEndian.Uint16(buf[10:12])
	vaultType := VaultType(buf[12])
	if vaultType != VaultTypeReal && vaultType != VaultTypeDecoy {
		return h, vaulterr.NewBadFormat("codec.DecodeHeader", vaulterr.ReasonUnknownVaultType)
	}
	// kdf_id (buf[13]) and aead_id (buf[14]) have exactly one defined value
	// each in v1; an unrecognized value is a forward-compat signal, not
	// something v1 can act on, so it surfaces as unsupported version.
	if buf[13] != KDFArgon2id || buf[14] != AEADXChaCha {
		return h, vaulterr.NewBadFormat("codec.DecodeHeader", vaulterr.ReasonUnsupportedVersion)
	}
	if buf[15] != MethodCount {
		return h, vaulterr.NewBadFormat("codec.DecodeHeader", vaulterr.ReasonWrongMethodCount)
	}

	h.Version = version
	h.Flags = flags
	h.VaultType = vaultType
	copy(h.HeaderSalt[:], buf[16:32])

	pin, err := decodeMethod(buf[32:133])
	if err != nil {
		return Header{}, err
	}
	recovery, err := decodeMethod(buf[133:234])
	if err != nil {
		return Header{}, err
	}
	h.PIN = pin
	h.Recovery = recovery
	return h, nil
}

// Split divides a full blob into its header bytes, body nonce, and body
// ciphertext, without copying. It verifies the blob is at least
// MinBlobLen bytes before slicing.
func Split(blob []byte) (headerBytes, bodyNonce, bodyCiphertext []byte, err error) {
	if len(blob) < MinBlobLen {
		return nil, nil, nil, vaulterr.NewBadFormat("codec.Split", vaulterr.ReasonTooShort)
	}
	headerBytes = blob[:HeaderSize]
	bodyNonce = blob[HeaderSize : HeaderSize+BodyNonceLen]
	bodyCiphertext = blob[HeaderSize+BodyNonceLen:]
	return headerBytes, bodyNonce, bodyCiphertext, nil
}

// Assemble concatenates a header, body nonce, and body ciphertext into a
// single blob.
func Assemble(headerBytes, bodyNonce, bodyCiphertext []byte) []byte {
	blob := make([]byte, 0, len(headerBytes)+len(bodyNonce)+len(bodyCiphertext))
	blob = append(blob, headerBytes...)
	blob = append(blob, bodyNonce...)
	blob = append(blob, bodyCiphertext...)
	return blob
}
