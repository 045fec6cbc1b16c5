package keychain

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

const (
	testServiceName = "rsafe-test"
	testAccountName = "test-pin"
)

// testService wraps Service for testing with isolated keychain entries so
// a failing test run never clobbers a real PIN entry.
type testService struct {
	*Service
}

func newTestService() *testService {
	return &testService{Service: New("")}
}

func (ts *testService) Store(pin string) error {
	return keyring.Set(testServiceName, testAccountName, pin)
}

func (ts *testService) Retrieve() (string, error) {
	pin, err := keyring.Get(testServiceName, testAccountName)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrPINNotFound
	}
	return pin, err
}

func (ts *testService) Delete() error {
	err := keyring.Delete(testServiceName, testAccountName)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func TestNew(t *testing.T) {
	s := New("")
	if s.vaultID != "" {
		t.Errorf("vaultID = %q, want empty string", s.vaultID)
	}

	sVault := New("test-vault")
	if sVault.vaultID != "test-vault" {
		t.Errorf("vaultID = %q, want %q", sVault.vaultID, "test-vault")
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	s := newTestService()
	if !s.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = s.Delete()

	const testPIN = "123456"
	if err := s.Store(testPIN); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := s.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got != testPIN {
		t.Errorf("Retrieve() = %q, want %q", got, testPIN)
	}

	_ = s.Delete()
}

func TestRetrieveNonExistent(t *testing.T) {
	s := newTestService()
	if !s.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = s.Delete()

	if _, err := s.Retrieve(); !errors.Is(err, ErrPINNotFound) {
		t.Errorf("Retrieve() error = %v, want %v", err, ErrPINNotFound)
	}
}

func TestDelete(t *testing.T) {
	s := newTestService()
	if !s.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = s.Delete()

	if err := s.Store("will-be-deleted"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Retrieve(); !errors.Is(err, ErrPINNotFound) {
		t.Errorf("after Delete(), Retrieve() error = %v, want %v", err, ErrPINNotFound)
	}
}

func TestDeleteNonExistent(t *testing.T) {
	s := newTestService()
	if !s.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = s.Delete()

	if err := s.Delete(); err != nil {
		t.Errorf("Delete() on non-existent entry failed: %v", err)
	}
}

func TestMultipleStoreOverwrites(t *testing.T) {
	s := newTestService()
	if !s.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = s.Delete()

	if err := s.Store("111111"); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	if err := s.Store("222222"); err != nil {
		t.Fatalf("second Store: %v", err)
	}
	got, err := s.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got != "222222" {
		t.Errorf("Retrieve() = %q, want %q", got, "222222")
	}
	_ = s.Delete()
}

func TestSanitizeVaultID(t *testing.T) {
	tests := []struct{ input, expected string }{
		{"", ""},
		{".", ""},
		{"my-vault", "my-vault"},
		{"my_vault", "my_vault"},
		{"MyVault123", "MyVault123"},
		{"my vault", "my_vault"},
		{"my/vault", "my_vault"},
		{"my\\vault", "my_vault"},
		{"my:vault", "my_vault"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := sanitizeVaultID(tc.input); got != tc.expected {
				t.Errorf("sanitizeVaultID(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestAccountName(t *testing.T) {
	tests := []struct{ vaultID, expected string }{
		{"", "pin"},
		{"my-vault", "pin-my-vault"},
		{"test_vault", "pin-test_vault"},
	}
	for _, tc := range tests {
		t.Run(tc.vaultID, func(t *testing.T) {
			s := New(tc.vaultID)
			if got := s.accountName(); got != tc.expected {
				t.Errorf("accountName() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestVaultIsolation(t *testing.T) {
	s1 := New("vault1")
	s2 := New("vault2")
	if !s1.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = s1.Delete()
	_ = s2.Delete()

	if err := s1.Store("pin-for-vault1"); err != nil {
		t.Fatalf("store vault1: %v", err)
	}
	if err := s2.Store("pin-for-vault2"); err != nil {
		t.Fatalf("store vault2: %v", err)
	}

	got1, err := s1.Retrieve()
	if err != nil {
		t.Fatalf("retrieve vault1: %v", err)
	}
	if got1 != "pin-for-vault1" {
		t.Errorf("vault1 pin = %q, want %q", got1, "pin-for-vault1")
	}

	got2, err := s2.Retrieve()
	if err != nil {
		t.Fatalf("retrieve vault2: %v", err)
	}
	if got2 != "pin-for-vault2" {
		t.Errorf("vault2 pin = %q, want %q", got2, "pin-for-vault2")
	}

	_ = s1.Delete()
	_ = s2.Delete()
}
