package state

import (
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := New()
	s.Entries = append(s.Entries, Entry{
		ID:        NewID(),
		Title:     "x",
		Username:  "alice",
		Password:  []byte("hunter2"),
		URL:       "https://example.com",
		Notes:     []byte("some notes"),
		Tags:      []string{"work", "email"},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	})

	data, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.SchemaVersion != s.SchemaVersion {
		t.Errorf("schema version mismatch")
	}
	if got.VaultUUID != s.VaultUUID {
		t.Errorf("vault uuid mismatch: got %s want %s", got.VaultUUID, s.VaultUUID)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}
	if got.Entries[0].ID != s.Entries[0].ID {
		t.Errorf("entry id mismatch")
	}
	if string(got.Entries[0].Password) != "hunter2" {
		t.Errorf("password round trip failed: got %q", got.Entries[0].Password)
	}
	if got.Entries[0].Title != "x" {
		t.Errorf("title mismatch")
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"schema_version":1,"vault_uuid":"AAAAAAAAAAAAAAAAAAAAAA==","entries":[],"created_at":"2024-01-01T00:00:00Z","future_field":"ignored"}`)
	s, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.SchemaVersion != 1 {
		t.Errorf("schema version mismatch")
	}
}

func TestEntryWipeClearsSecretsOnly(t *testing.T) {
	id := NewID()
	created := time.Now().UTC()
	e := Entry{
		ID:        id,
		Title:     "x",
		Username:  "alice",
		Password:  []byte("secret"),
		Notes:     []byte("notes"),
		CreatedAt: created,
	}
	e.Wipe()

	if e.ID != id {
		t.Errorf("ID should survive wipe")
	}
	if !e.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt should survive wipe")
	}
	for _, b := range e.Password {
		if b != 0 {
			t.Fatalf("password not wiped: %v", e.Password)
		}
	}
	for _, b := range e.Notes {
		if b != 0 {
			t.Fatalf("notes not wiped: %v", e.Notes)
		}
	}
	if e.Title != "" || e.Username != "" {
		t.Errorf("expected title/username cleared")
	}
}
