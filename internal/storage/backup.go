package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rsafevault/rsafe/internal/codec"
)

// ManualBackupSuffix is the file extension for manual backups.
const ManualBackupSuffix = ".manual.backup"

// Backup type constants.
const (
	BackupTypeAutomatic = "automatic"
	BackupTypeManual    = "manual"
)

// BackupInfo describes a single backup file, automatic or manual.
type BackupInfo struct {
	Path        string
	ModTime     time.Time
	Size        int64
	Type        string
	IsCorrupted bool
}

// generateManualBackupPath generates a timestamped filename for manual
// backups. Format: vault.rsafe.YYYYMMDD-HHMMSS.manual.backup (UTC).
func (s *Service) generateManualBackupPath() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	baseDir := filepath.Dir(s.vaultPath)
	baseName := filepath.Base(s.vaultPath)
	return filepath.Join(baseDir, fmt.Sprintf("%s.%s%s", baseName, timestamp, ManualBackupSuffix))
}

// CreateManualBackup creates a timestamped manual backup of the vault file
// and returns its path.
func (s *Service) CreateManualBackup() (string, error) {
	if !s.VaultExists() {
		return "", ErrVaultNotFound
	}

	backupPath := s.generateManualBackupPath()
	backupDir := filepath.Dir(backupPath)
	if err := s.fs.MkdirAll(backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	if err := s.copyFile(s.vaultPath, backupPath); err != nil {
		return "", fmt.Errorf("failed to create manual backup: %w", err)
	}

	return backupPath, nil
}

// createAutomaticBackup copies the current vault file to its fixed
// automatic backup path (vaultPath + BackupSuffix).
func (s *Service) createAutomaticBackup() error {
	if !s.VaultExists() {
		return ErrVaultNotFound
	}
	return s.copyFile(s.vaultPath, s.vaultPath+BackupSuffix)
}

// restoreFromBackupFile copies backupPath over the vault path after
// confirming the backup still parses as a well-formed blob.
func (s *Service) restoreFromBackupFile(backupPath string) error {
	if err := s.verifyBackupIntegrity(backupPath); err != nil {
		return fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	if err := s.copyFile(backupPath, s.vaultPath); err != nil {
		return fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	return nil
}

// ListBackups discovers all backup files (automatic and manual), sorted
// newest first.
func (s *Service) ListBackups() ([]BackupInfo, error) {
	vaultDir := filepath.Dir(s.vaultPath)
	baseName := filepath.Base(s.vaultPath)

	var backups []BackupInfo

	automaticPath := filepath.Join(vaultDir, baseName+BackupSuffix)
	if info, err := os.Stat(automaticPath); err == nil {
		backups = append(backups, BackupInfo{
			Path:        automaticPath,
			ModTime:     info.ModTime(),
			Size:        info.Size(),
			Type:        BackupTypeAutomatic,
			IsCorrupted: s.verifyBackupIntegrity(automaticPath) != nil,
		})
	}

	manualPattern := filepath.Join(vaultDir, baseName+".*"+ManualBackupSuffix)
	matches, err := filepath.Glob(manualPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to find manual backups: %w", err)
	}

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:        match,
			ModTime:     info.ModTime(),
			Size:        info.Size(),
			Type:        BackupTypeManual,
			IsCorrupted: s.verifyBackupIntegrity(match) != nil,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})

	return backups, nil
}

// FindNewestBackup returns the most recent non-corrupted backup, or nil if
// none exists.
func (s *Service) FindNewestBackup() (*BackupInfo, error) {
	backups, err := s.ListBackups()
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	for i := range backups {
		if !backups[i].IsCorrupted {
			return &backups[i], nil
		}
	}
	return nil, nil
}

// verifyBackupIntegrity checks that a backup file exists, is large enough
// to possibly hold a blob, and parses as a well-formed header. It cannot
// decrypt the backup, since storage never holds the vault secret.
func (s *Service) verifyBackupIntegrity(backupPath string) error {
	info, err := os.Stat(backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup file not found: %w", err)
		}
		return fmt.Errorf("failed to stat backup file: %w", err)
	}

	if info.Size() < int64(codec.MinBlobLen) {
		return fmt.Errorf("backup file too small (%d bytes, minimum %d bytes required)", info.Size(), codec.MinBlobLen)
	}

	data, err := s.fs.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("cannot read backup file: %w", err)
	}

	if err := validateBlobStructure(data); err != nil {
		return fmt.Errorf("backup file validation failed: %w", err)
	}

	return nil
}

// copyFile copies a file from src to dst with vault permissions, using the
// FileSystem abstraction for testability.
func (s *Service) copyFile(src, dst string) error {
	srcFile, err := s.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- backup path is generated internally or user-controlled by design for a CLI tool
	dstFile, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, VaultPermissions)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}
	return nil
}
