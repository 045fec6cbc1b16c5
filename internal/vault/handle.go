package vault

import (
	"time"

	"github.com/rsafevault/rsafe/internal/aead"
	"github.com/rsafevault/rsafe/internal/codec"
	"github.com/rsafevault/rsafe/internal/kdf"
	"github.com/rsafevault/rsafe/internal/normalize"
	"github.com/rsafevault/rsafe/internal/rng"
	"github.com/rsafevault/rsafe/internal/state"
	"github.com/rsafevault/rsafe/internal/vaulterr"
	"github.com/rsafevault/rsafe/internal/zeroize"
)

type lifecycle int

const (
	lifecycleUnlocked lifecycle = iota
	lifecycleDestroyed
)

// Handle is the transient in-memory object an unlock produces: the
// vault-key, the decoded state, and the header exactly as parsed. A
// single Handle is not safe for concurrent mutation. Its vault-key is
// wiped on every destroy path: an explicit Lock, or the finalizer Unlock
// registers, which calls Lock when the garbage collector reclaims a
// Handle that was dropped without one.
type Handle struct {
	key       []byte
	state     state.State
	header    codec.Header
	lifecycle lifecycle
}

func (h *Handle) requireUnlocked(op string) error {
	if h.lifecycle != lifecycleUnlocked {
		return vaulterr.New(op, vaulterr.Internal, errHandleDestroyed)
	}
	return nil
}

// VaultType reports whether this handle's vault is Real or Decoy. It is
// only observable after a successful unlock; the unlock procedure itself
// is oblivious to it.
func (h *Handle) VaultType() codec.VaultType { return h.header.VaultType }

// ListEntriesMetadata returns the non-secret fields of every entry.
func (h *Handle) ListEntriesMetadata() ([]state.Metadata, error) {
	if err := h.requireUnlocked("vault.Handle.ListEntriesMetadata"); err != nil {
		return nil, err
	}
	out := make([]state.Metadata, len(h.state.Entries))
	for i := range h.state.Entries {
		out[i] = h.state.Entries[i].Metadata()
	}
	return out, nil
}

func (h *Handle) findEntry(id state.ID) int {
	for i := range h.state.Entries {
		if h.state.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// GetEntryPassword returns the decrypted password for id, or
// InvalidInput if no such entry exists.
func (h *Handle) GetEntryPassword(id state.ID) ([]byte, error) {
	if err := h.requireUnlocked("vault.Handle.GetEntryPassword"); err != nil {
		return nil, err
	}
	idx := h.findEntry(id)
	if idx < 0 {
		return nil, vaulterr.New("vault.Handle.GetEntryPassword", vaulterr.InvalidInput, errEntryNotFound)
	}
	return append([]byte(nil), h.state.Entries[idx].Password...), nil
}

// GetEntryNotes returns the decrypted notes for id, or InvalidInput if no
// such entry exists.
func (h *Handle) GetEntryNotes(id state.ID) ([]byte, error) {
	if err := h.requireUnlocked("vault.Handle.GetEntryNotes"); err != nil {
		return nil, err
	}
	idx := h.findEntry(id)
	if idx < 0 {
		return nil, vaulterr.New("vault.Handle.GetEntryNotes", vaulterr.InvalidInput, errEntryNotFound)
	}
	return append([]byte(nil), h.state.Entries[idx].Notes...), nil
}

// AddEntry appends a new entry and returns its freshly generated ID.
func (h *Handle) AddEntry(title, username string, password []byte, url string, notes []byte, tags []string) (state.ID, error) {
	if err := h.requireUnlocked("vault.Handle.AddEntry"); err != nil {
		return state.ID{}, err
	}
	now := time.Now().UTC()
	entry := state.Entry{
		ID:        state.NewID(),
		Title:     title,
		Username:  username,
		Password:  append([]byte(nil), password...),
		URL:       url,
		Notes:     append([]byte(nil), notes...),
		Tags:      append([]string(nil), tags...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	h.state.Entries = append(h.state.Entries, entry)
	return entry.ID, nil
}

// DeleteEntry removes the entry with id, wiping its secret fields first.
// Returns InvalidInput if no such entry exists.
func (h *Handle) DeleteEntry(id state.ID) error {
	if err := h.requireUnlocked("vault.Handle.DeleteEntry"); err != nil {
		return err
	}
	idx := h.findEntry(id)
	if idx < 0 {
		return vaulterr.New("vault.Handle.DeleteEntry", vaulterr.InvalidInput, errEntryNotFound)
	}
	h.state.Entries[idx].Wipe()
	h.state.Entries = append(h.state.Entries[:idx], h.state.Entries[idx+1:]...)
	return nil
}

// ChangePIN rotates the PIN method in place: it preserves the Recovery
// method byte-for-byte, wraps the existing vault-key under a freshly
// derived PIN key, and returns a new blob. It never reads the old PIN —
// the handle itself proves prior unlock — and does not revoke the
// recovery secret.
func (h *Handle) ChangePIN(newPIN string, params kdf.Params) ([]byte, error) {
	const op = "vault.Handle.ChangePIN"
	if err := h.requireUnlocked(op); err != nil {
		return nil, err
	}

	normPIN, err := normalize.Secret(newPIN)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(normPIN)

	newPINMethod, err := buildMethod(op, codec.MethodPIN, normPIN, params, h.key)
	if err != nil {
		return nil, err
	}

	newHeader := h.header
	newHeader.PIN = newPINMethod

	// The retained header is replaced only once the re-encryption has
	// succeeded, so a failed ChangePIN leaves the handle untouched.
	blob, err := h.exportWithHeader(newHeader)
	if err != nil {
		return nil, err
	}
	h.header = newHeader
	return blob, nil
}

// Export re-encrypts the handle's current state under the vault-key with
// the retained header as AAD and a fresh body nonce. The header bytes are
// re-encoded from the retained parsed header; since encoding is the exact
// inverse of parsing, they match the input blob's header until something
// (e.g. ChangePIN) mutates it, and an export of unchanged state differs
// from the input blob only in body nonce and ciphertext.
func (h *Handle) Export() ([]byte, error) {
	if err := h.requireUnlocked("vault.Handle.Export"); err != nil {
		return nil, err
	}
	return h.export()
}

func (h *Handle) export() ([]byte, error) {
	return h.exportWithHeader(h.header)
}

func (h *Handle) exportWithHeader(header codec.Header) ([]byte, error) {
	const op = "vault.Handle.export"
	headerBytes := codec.EncodeHeader(header)
	body, err := state.Encode(h.state)
	if err != nil {
		return nil, err
	}
	bodyNonce, err := rng.Generate(codec.BodyNonceLen)
	if err != nil {
		return nil, err
	}
	ciphertext, err := aead.Encrypt(h.key, bodyNonce, body, headerBytes)
	if err != nil {
		return nil, vaulterr.New(op, vaulterr.Internal, err)
	}
	return codec.Assemble(headerBytes, bodyNonce, ciphertext), nil
}

// Lock destroys the handle: the vault-key is wiped and the state's
// secret fields are wiped. After Lock, every other method with an error
// result returns an error; VaultType still reports the retained header's
// type.
func (h *Handle) Lock() {
	if h.lifecycle == lifecycleDestroyed {
		return
	}
	zeroize.Bytes(h.key)
	h.state.Wipe()
	h.lifecycle = lifecycleDestroyed
}
