package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var restoreFrom string

var vaultBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a timestamped backup of the vault file",
	Long: `Backup copies the encrypted vault file to a timestamped sibling. The
copy is ciphertext: it opens with the same PIN and recovery phrase as the
vault it was taken from, and leaks nothing without them.`,
	Example: `  # Back up the vault before a risky operation
  rsafe vault backup`,
	Args: cobra.NoArgs,
	RunE: runVaultBackup,
}

var vaultBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List available vault backups",
	Args:  cobra.NoArgs,
	RunE:  runVaultBackups,
}

var vaultRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the vault from a backup",
	Long: `Restore replaces the vault file with a backup copy. Without --from, the
newest intact backup is used. The backup's header is checked for
well-formedness before it replaces anything; its contents can only be
verified by unlocking afterwards.`,
	Example: `  # Restore from the newest intact backup
  rsafe vault restore

  # Restore a specific backup
  rsafe vault restore --from ~/.rsafe/vault.rsafe.20260801-120000.manual.backup`,
	Args: cobra.NoArgs,
	RunE: runVaultRestore,
}

func init() {
	vaultCmd.AddCommand(vaultBackupCmd)
	vaultCmd.AddCommand(vaultBackupsCmd)
	vaultCmd.AddCommand(vaultRestoreCmd)
	vaultBackupCmd.Flags().String("vault", "", "vault file path (overrides config)")
	vaultBackupsCmd.Flags().String("vault", "", "vault file path (overrides config)")
	vaultRestoreCmd.Flags().String("vault", "", "vault file path (overrides config)")
	vaultRestoreCmd.Flags().StringVar(&restoreFrom, "from", "", "backup file to restore (default: newest intact backup)")
}

func runVaultBackup(cmd *cobra.Command, args []string) error {
	st, _, err := openStorage(cmd)
	if err != nil {
		return err
	}

	backupPath, err := st.CreateManualBackup()
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	successColor.Printf("✓ Backup created: %s\n", backupPath)
	return nil
}

func runVaultBackups(cmd *cobra.Command, args []string) error {
	st, _, err := openStorage(cmd)
	if err != nil {
		return err
	}

	backups, err := st.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Println("No backups found. Create one with 'rsafe vault backup'.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Path", "Type", "Age", "Status"})

	var data [][]string
	for _, b := range backups {
		status := "ok"
		if b.IsCorrupted {
			status = "corrupted"
		}
		data = append(data, []string{b.Path, b.Type, formatRelativeTime(b.ModTime), status})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func runVaultRestore(cmd *cobra.Command, args []string) error {
	st, vaultPath, err := openStorage(cmd)
	if err != nil {
		return err
	}

	if st.VaultExists() {
		fmt.Printf("This replaces the vault at %s with the backup's contents.\n", vaultPath)
		confirmed, err := promptYesNo("Restore?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := st.RestoreFromBackup(restoreFrom); err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}

	successColor.Printf("✓ Vault restored: %s\n", vaultPath)
	fmt.Println("  Verify with 'rsafe unlock'.")
	return nil
}
