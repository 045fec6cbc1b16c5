// Package keychain stores a vault's PIN in the operating system's
// credential store so the CLI can offer unattended unlock without writing
// the PIN to disk itself.
package keychain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the identifier used for keychain storage.
	ServiceName = "rsafe"
	// AccountName is the base account identifier for a vault's PIN.
	// Vault-specific entries become "pin-<vaultID>".
	AccountName = "pin"
)

var (
	// ErrKeychainUnavailable indicates the system keychain is not available.
	ErrKeychainUnavailable = errors.New("system keychain is not available")
	// ErrPINNotFound indicates no PIN is stored in the keychain.
	ErrPINNotFound = errors.New("pin not found in keychain")
)

// Service provides cross-platform system keychain integration for one
// vault's PIN.
type Service struct {
	available bool
	vaultID   string
}

// New creates a Service for a specific vault. vaultID should uniquely
// identify the vault, e.g. its file path; pass "" for a single-vault setup.
func New(vaultID string) *Service {
	return &Service{vaultID: sanitizeVaultID(vaultID)}
}

func sanitizeVaultID(vaultID string) string {
	if vaultID == "" || vaultID == "." {
		return ""
	}
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, vaultID)
	return safe
}

func (s *Service) accountName() string {
	if s.vaultID == "" {
		return AccountName
	}
	return fmt.Sprintf("%s-%s", AccountName, s.vaultID)
}

// Ping tests whether the system keychain is accessible.
func (s *Service) Ping() error {
	if s.available {
		return nil
	}
	testAccount := "rsafe-availability-test"
	if err := keyring.Set(ServiceName, testAccount, "test"); err != nil {
		return fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	_ = keyring.Delete(ServiceName, testAccount)
	s.available = true
	return nil
}

// IsAvailable reports whether the system keychain is usable.
func (s *Service) IsAvailable() bool {
	if !s.available {
		_ = s.Ping()
	}
	return s.available
}

// Store saves the PIN to the system keychain.
func (s *Service) Store(pin string) error {
	if err := keyring.Set(ServiceName, s.accountName(), pin); err != nil {
		return fmt.Errorf("failed to store pin in keychain: %w", err)
	}
	return nil
}

// Retrieve reads the PIN from the system keychain.
func (s *Service) Retrieve() (string, error) {
	pin, err := keyring.Get(ServiceName, s.accountName())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrPINNotFound
		}
		return "", fmt.Errorf("failed to retrieve pin from keychain: %w", err)
	}
	return pin, nil
}

// Delete removes the PIN from the system keychain. It is not an error if
// no PIN was stored.
func (s *Service) Delete() error {
	if err := keyring.Delete(ServiceName, s.accountName()); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete pin from keychain: %w", err)
	}
	return nil
}
