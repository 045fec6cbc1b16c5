package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var vaultRemoveForce bool

var vaultCmd = &cobra.Command{
	Use:     "vault",
	GroupID: "vault",
	Short:   "Manage vault files",
}

var vaultRemoveCmd = &cobra.Command{
	Use:   "rm",
	Short: "Permanently delete a vault file",
	Long: `Rm deletes the vault file, its automatic backup, and any PIN stored in
the system keychain for it. The entries inside are unrecoverable after
this — there is no undo and no trash.`,
	Example: `  # Delete the default vault
  rsafe vault rm

  # Delete a decoy vault without confirmation
  rsafe vault rm --vault ~/.rsafe/decoy.rsafe --force`,
	Args: cobra.NoArgs,
	RunE: runVaultRemove,
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultRemoveCmd)
	vaultRemoveCmd.Flags().String("vault", "", "vault file path (overrides config)")
	vaultRemoveCmd.Flags().BoolVarP(&vaultRemoveForce, "force", "f", false, "skip confirmation prompt")
}

func runVaultRemove(cmd *cobra.Command, args []string) error {
	st, vaultPath, err := openStorage(cmd)
	if err != nil {
		return err
	}

	if !st.VaultExists() {
		return fmt.Errorf("no vault found at %s", vaultPath)
	}

	if !vaultRemoveForce {
		fmt.Printf("This permanently deletes the vault at %s and everything in it.\n", vaultPath)
		confirmed, err := promptYesNo("Delete vault?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.Remove(vaultPath); err != nil {
		return fmt.Errorf("failed to delete vault file: %w", err)
	}
	if err := st.RemoveBackup(); err != nil {
		warnColor.Printf("⚠  Failed to delete backup: %v\n", err)
	}
	if err := keychainForVault(vaultPath).Delete(); err != nil {
		warnColor.Printf("⚠  Failed to clear keychain entry: %v\n", err)
	}

	successColor.Printf("✓ Vault deleted: %s\n", vaultPath)
	return nil
}
