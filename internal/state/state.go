// Package state models the vault's cleartext payload: the ordered set of
// credential entries that live inside the AEAD-protected body.
package state

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rsafevault/rsafe/internal/vaulterr"
	"github.com/rsafevault/rsafe/internal/zeroize"
)

// SchemaVersion is the current VaultState schema version.
const SchemaVersion = uint16(1)

// ID is a 128-bit identifier. The body payload carries UUIDs as 16-byte
// byte strings; since the body's self-describing encoding is JSON (see
// Decode/Encode), that means a base64 string of the raw 16 bytes rather
// than UUID's canonical dashed textual form, which is why this wraps
// uuid.UUID with its own JSON methods instead of using uuid.UUID's
// default (text) marshaling directly.
type ID uuid.UUID

// NewID generates a fresh random (v4) 128-bit identifier.
func NewID() ID { return ID(uuid.New()) }

// String renders the canonical dashed textual form, for display only.
func (id ID) String() string { return uuid.UUID(id).String() }

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(id[:]))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("id: invalid base64: %w", err)
	}
	if len(raw) != 16 {
		return fmt.Errorf("id: expected 16 bytes, got %d", len(raw))
	}
	copy(id[:], raw)
	return nil
}

// Entry is a single credential record. Its in-memory representation is
// sensitive and must be wiped when dropped, except for ID/CreatedAt/
// UpdatedAt, which are non-secret metadata.
type Entry struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	Password  []byte    `json:"password,omitempty"`
	URL       string    `json:"url,omitempty"`
	Notes     []byte    `json:"notes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Wipe zeros the entry's secret fields. ID and timestamps are left intact.
func (e *Entry) Wipe() {
	zeroize.Bytes(e.Password)
	zeroize.Bytes(e.Notes)
	e.Title = ""
	e.Username = ""
	e.URL = ""
	e.Tags = nil
}

// Metadata is the subset of an Entry's fields safe to list without
// decrypting password/notes into a wider blast radius.
type Metadata struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	URL       string    `json:"url"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata returns the non-secret fields of e.
func (e *Entry) Metadata() Metadata {
	return Metadata{
		ID:        e.ID,
		Title:     e.Title,
		Username:  e.Username,
		URL:       e.URL,
		Tags:      append([]string(nil), e.Tags...),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// State is the full decrypted vault payload.
type State struct {
	SchemaVersion uint16    `json:"schema_version"`
	VaultUUID     ID        `json:"vault_uuid"`
	Entries       []Entry   `json:"entries"`
	CreatedAt     time.Time `json:"created_at"`
}

// New builds an empty State with a fresh vault-wide identifier.
func New() State {
	return State{
		SchemaVersion: SchemaVersion,
		VaultUUID:     NewID(),
		Entries:       nil,
		CreatedAt:     time.Now().UTC(),
	}
}

// Wipe zeros every entry's secret fields. VaultUUID and CreatedAt are
// non-secret metadata and are left intact.
func (s *State) Wipe() {
	for i := range s.Entries {
		s.Entries[i].Wipe()
	}
}

// Encode serializes s as the self-describing body payload: a JSON object
// graph with keys schema_version, vault_uuid, entries, created_at.
// encoding/json ignores unknown fields on decode, which gives the format
// additive evolution for free.
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, vaulterr.New("state.Encode", vaulterr.Codec, err)
	}
	return data, nil
}

// Decode parses a body payload previously produced by Encode.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, vaulterr.New("state.Decode", vaulterr.Codec, err)
	}
	return s, nil
}
