package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsafevault/rsafe/internal/codec"
	"github.com/rsafevault/rsafe/internal/storage"
	"github.com/rsafevault/rsafe/internal/vault"
	"github.com/rsafevault/rsafe/internal/vaulterr"
)

var unlockStoreKeychain bool

var unlockCmd = &cobra.Command{
	Use:     "unlock",
	GroupID: "vault",
	Short:   "Verify a secret opens the vault",
	Long: `Unlock checks that a PIN or recovery phrase opens the vault, without
reading any entry. Useful after writing down a new recovery phrase, or to
confirm a vault file survived a transfer intact.

With --keychain, a successfully verified PIN is stored in the system
keychain so later commands skip the prompt.`,
	Example: `  # Verify a secret opens the vault
  rsafe unlock

  # Verify the PIN and remember it in the system keychain
  rsafe unlock --keychain`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	unlockCmd.Flags().String("vault", "", "vault file path (overrides config)")
	unlockCmd.Flags().BoolVar(&unlockStoreKeychain, "keychain", false, "store the verified PIN in the system keychain")
}

func runUnlock(cmd *cobra.Command, args []string) error {
	st, vaultPath, err := openStorage(cmd)
	if err != nil {
		return err
	}

	blob, err := st.LoadBlob()
	if err != nil {
		if errors.Is(err, storage.ErrVaultNotFound) {
			return fmt.Errorf("vault not found at %s\nRun 'rsafe init' to create a vault first", vaultPath)
		}
		return err
	}

	secret, err := readSecret("PIN or recovery phrase: ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	handle, err := vault.Unlock(blob, secret)
	if err != nil {
		if errors.Is(err, vaulterr.ErrAuthFailed) {
			return fmt.Errorf("failed to unlock vault: wrong secret or corrupted vault")
		}
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	defer handle.Lock()

	entries, err := handle.ListEntriesMetadata()
	if err != nil {
		return err
	}

	successColor.Println("✓ Vault unlocked")
	fmt.Printf("  Entries: %d\n", len(entries))
	if handle.VaultType() == codec.VaultTypeDecoy {
		fmt.Println("  Type:    decoy")
	}

	if unlockStoreKeychain {
		kc := keychainForVault(vaultPath)
		if !kc.IsAvailable() {
			warnColor.Println(getKeychainUnavailableMessage())
		} else if err := kc.Store(secret); err != nil {
			warnColor.Printf("⚠  Failed to store PIN in keychain: %v\n", err)
		} else {
			fmt.Println("🔑 PIN stored in system keychain")
		}
	}
	return nil
}
