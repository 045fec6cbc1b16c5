// Package storage persists the vault's encrypted blob to disk. The blob
// produced by internal/vault is already self-contained and authenticated;
// this package's only job is to get its bytes onto disk (and back) without
// ever leaving a torn or partially-written file behind.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rsafevault/rsafe/internal/codec"
)

const (
	// VaultPermissions restricts the vault file to its owner.
	VaultPermissions = 0600
	// BackupSuffix names the automatic pre-save backup.
	BackupSuffix = ".backup"
	// TempSuffix names the temp file used during an atomic save.
	TempSuffix = ".tmp"
)

var (
	ErrVaultNotFound    = errors.New("vault file not found")
	ErrVaultCorrupted   = errors.New("vault file corrupted")
	ErrInvalidVaultPath = errors.New("invalid vault path")
	ErrBackupFailed     = errors.New("backup operation failed")
)

// ProgressCallback is invoked at key stages of a save, e.g. for audit
// logging or a progress spinner. event is a stage identifier such as
// "temp_file_created" or "verification_passed".
type ProgressCallback func(event string, metadata ...string)

// Service persists an opaque vault blob at a fixed path on disk.
type Service struct {
	vaultPath string
	fs        FileSystem
}

// NewService creates a Service backed by the real filesystem.
func NewService(vaultPath string) (*Service, error) {
	return NewServiceWithFS(vaultPath, NewOSFileSystem())
}

// NewServiceWithFS creates a Service with an injected FileSystem, for tests.
func NewServiceWithFS(vaultPath string, fs FileSystem) (*Service, error) {
	if vaultPath == "" {
		return nil, ErrInvalidVaultPath
	}
	if fs == nil {
		fs = NewOSFileSystem()
	}
	dir := filepath.Dir(vaultPath)
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &Service{vaultPath: vaultPath, fs: fs}, nil
}

// VaultExists reports whether a vault file is present at this Service's path.
func (s *Service) VaultExists() bool {
	_, err := s.fs.Stat(s.vaultPath)
	return err == nil
}

// LoadBlob reads the raw vault blob from disk.
func (s *Service) LoadBlob() ([]byte, error) {
	if !s.VaultExists() {
		return nil, ErrVaultNotFound
	}
	data, err := s.fs.ReadFile(s.vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}
	return data, nil
}

// SaveBlob atomically writes blob to the vault path: write to a temp file,
// verify it parses as a well-formed header, back up the existing vault,
// then rename the temp file into place. If the final rename fails, it
// attempts to restore the pre-save backup.
func (s *Service) SaveBlob(blob []byte, callback ProgressCallback) error {
	notify := func(event string, meta ...string) {
		if callback != nil {
			callback(event, meta...)
		}
	}

	notify("atomic_save_started", s.vaultPath)

	s.cleanupOrphanedTempFiles("")

	tempPath := s.generateTempFileName()
	if err := s.writeToTempFile(tempPath, blob); err != nil {
		return err
	}
	notify("temp_file_created", tempPath)

	defer func() { _ = s.cleanupTempFile(tempPath) }()

	notify("verification_started", tempPath)
	if err := s.verifyTempFile(tempPath); err != nil {
		notify("verification_failed", tempPath, err.Error())
		_ = s.cleanupTempFile(tempPath)
		return err
	}
	notify("verification_passed", tempPath)

	backupPath := s.vaultPath + BackupSuffix
	if s.VaultExists() {
		notify("atomic_rename_started", s.vaultPath, backupPath)
		if err := s.atomicRename(s.vaultPath, backupPath); err != nil {
			return err
		}
	}

	notify("atomic_rename_started", tempPath, s.vaultPath)
	if err := s.atomicRename(tempPath, s.vaultPath); err != nil {
		notify("rollback_started", backupPath, s.vaultPath)
		_ = s.atomicRename(backupPath, s.vaultPath)
		notify("rollback_completed", s.vaultPath)
		return fmt.Errorf("critical: failed to install new vault file: %w", err)
	}

	notify("atomic_save_completed", s.vaultPath)
	return nil
}

// CreateBackup copies the current vault file to its automatic backup path.
func (s *Service) CreateBackup() error {
	return s.createAutomaticBackup()
}

// RestoreFromBackup restores the vault from backupPath, or from the
// newest intact backup (automatic or manual) if backupPath is empty.
func (s *Service) RestoreFromBackup(backupPath string) error {
	if backupPath == "" {
		newest, err := s.FindNewestBackup()
		if err != nil {
			return fmt.Errorf("failed to find backup: %w", err)
		}
		if newest == nil {
			return ErrBackupFailed
		}
		backupPath = newest.Path
	}
	return s.restoreFromBackupFile(backupPath)
}

// RemoveBackup deletes the automatic backup file, if one exists.
func (s *Service) RemoveBackup() error {
	err := os.Remove(s.vaultPath + BackupSuffix)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ValidateVault checks that the on-disk blob parses as a well-formed header.
func (s *Service) ValidateVault() error {
	data, err := s.LoadBlob()
	if err != nil {
		return err
	}
	return validateBlobStructure(data)
}

// validateBlobStructure confirms data at least parses as a well-formed
// header and split; it does not (and cannot, without a secret) attempt
// decryption.
func validateBlobStructure(data []byte) error {
	headerBytes, _, _, err := codec.Split(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVaultCorrupted, err)
	}
	if _, err := codec.DecodeHeader(headerBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrVaultCorrupted, err)
	}
	return nil
}
