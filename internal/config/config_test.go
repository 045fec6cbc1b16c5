package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromPathMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.VaultPath == "" {
		t.Fatalf("expected a default vault path")
	}
	if err := cfg.PinParams.Validate(); err != nil {
		t.Fatalf("default pin params should validate: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := GetDefaults()
	cfg.VaultPath = "/tmp/my-vault.rsafe"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if got.VaultPath != cfg.VaultPath {
		t.Fatalf("vault path mismatch: got %q want %q", got.VaultPath, cfg.VaultPath)
	}
	if got.PinParams != cfg.PinParams {
		t.Fatalf("pin params mismatch: got %+v want %+v", got.PinParams, cfg.PinParams)
	}
}
