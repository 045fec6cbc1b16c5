package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rekeyUpdateKeychain bool

var rekeyCmd = &cobra.Command{
	Use:     "rekey",
	GroupID: "vault",
	Short:   "Change the vault PIN",
	Long: `Rekey replaces the vault's PIN with a new one.

The vault is unlocked first — with the old PIN or with the recovery
phrase, which makes rekey the escape hatch for a forgotten PIN. The
recovery phrase itself is untouched: it opens the vault before and after.`,
	Example: `  # Change the PIN (unlock with old PIN or recovery phrase)
  rsafe rekey

  # Change the PIN and refresh the keychain copy
  rsafe rekey --update-keychain`,
	Args: cobra.NoArgs,
	RunE: runRekey,
}

func init() {
	rootCmd.AddCommand(rekeyCmd)
	rekeyCmd.Flags().String("vault", "", "vault file path (overrides config)")
	rekeyCmd.Flags().BoolVar(&rekeyUpdateKeychain, "update-keychain", false, "store the new PIN in the system keychain")
}

func runRekey(cmd *cobra.Command, args []string) error {
	handle, st, err := unlockFromStorage(cmd)
	if err != nil {
		return err
	}
	defer handle.Lock()

	newPIN, err := readSecretConfirmed("New PIN: ", "Confirm new PIN: ")
	if err != nil {
		return fmt.Errorf("failed to read new PIN: %w", err)
	}

	cfg := GetConfig()
	blob, err := handle.ChangePIN(newPIN, cfg.PinParams.KDF())
	if err != nil {
		return fmt.Errorf("failed to change PIN: %w", err)
	}

	if err := st.SaveBlob(blob, verboseSaveCallback()); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}

	vaultPath := GetVaultPath(cmd)
	kc := keychainForVault(vaultPath)
	if rekeyUpdateKeychain {
		if !kc.IsAvailable() {
			warnColor.Println(getKeychainUnavailableMessage())
		} else if err := kc.Store(newPIN); err != nil {
			warnColor.Printf("⚠  Failed to update keychain: %v\n", err)
		} else {
			fmt.Println("🔑 Keychain updated with the new PIN")
		}
	} else if _, err := kc.Retrieve(); err == nil {
		// A stale keychain PIN would silently fail on the next unlock.
		warnColor.Println("⚠  A PIN is stored in the keychain; re-run with --update-keychain to refresh it")
	}

	successColor.Println("✓ PIN changed")
	fmt.Println("  The recovery phrase still opens the vault; the old PIN does not.")
	return nil
}
