package storage

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rsafevault/rsafe/internal/codec"
)

// generateTempFileName creates a unique temp file name with a timestamp and
// a random suffix. Format: vault.rsafe.tmp.YYYYMMDD-HHMMSS.XXXXXX
func (s *Service) generateTempFileName() string {
	timestamp := time.Now().Format("20060102-150405")
	suffix := randomHexSuffix(6)
	return fmt.Sprintf("%s%s.%s.%s", s.vaultPath, TempSuffix, timestamp, suffix)
}

// randomHexSuffix generates an N-character hex suffix from crypto/rand.
func randomHexSuffix(length int) string {
	buf := make([]byte, length/2)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%x", buf)
}

// writeToTempFile writes the vault blob to a temp file with vault
// permissions (0600).
func (s *Service) writeToTempFile(path string, data []byte) error {
	// #nosec G304 -- path is generated internally with timestamp+random suffix
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, VaultPermissions)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrDiskSpaceExhausted, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	return nil
}

// verifyTempFile confirms the freshly written temp file parses as a
// well-formed blob before it is allowed to replace the real vault file.
// It cannot attempt decryption here: storage never holds the vault
// secret. That check happens inside internal/vault at unlock time.
func (s *Service) verifyTempFile(path string) error {
	// #nosec G304 -- path is generated internally with timestamp+random suffix
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: cannot read temporary file: %v", ErrVerificationFailed, err)
	}

	headerBytes, _, _, err := codec.Split(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if _, err := codec.DecodeHeader(headerBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return nil
}

// atomicRename performs an atomic rename, translating common failure modes
// into the storage package's sentinel errors.
func (s *Service) atomicRename(oldPath, newPath string) error {
	if err := s.fs.Rename(oldPath, newPath); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrFilesystemNotAtomic, err)
	}
	return nil
}

// cleanupTempFile removes a temporary file. Best-effort: failure to clean
// up is not itself an error condition for the caller.
func (s *Service) cleanupTempFile(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove temporary file %s: %v\n", path, err)
		return err
	}
	return nil
}

// cleanupOrphanedTempFiles removes leftover temp files from a previous
// save that crashed before it could clean up after itself.
func (s *Service) cleanupOrphanedTempFiles(currentTempPath string) {
	vaultDir := filepath.Dir(s.vaultPath)
	pattern := filepath.Join(vaultDir, "*"+TempSuffix+".*")

	matches, err := s.fs.Glob(pattern)
	if err != nil {
		return
	}

	for _, orphan := range matches {
		if orphan == currentTempPath {
			continue
		}
		if err := s.fs.Remove(orphan); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove orphaned temp file %s: %v\n", orphan, err)
		}
	}
}
