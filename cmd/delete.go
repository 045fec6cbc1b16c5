package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <title>",
	GroupID: "credentials",
	Short:   "Delete a credential from the vault",
	Long: `Delete removes an entry from the vault. The entry's secret fields are
wiped from memory before the vault is re-encrypted and saved.`,
	Example: `  # Delete with confirmation
  rsafe delete github

  # Delete without confirmation
  rsafe delete github --force`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().String("vault", "", "vault file path (overrides config)")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	handle, st, err := unlockFromStorage(cmd)
	if err != nil {
		return err
	}
	defer handle.Lock()

	meta, err := findEntry(handle, args[0])
	if err != nil {
		return err
	}

	if !deleteForce {
		confirmed, err := promptYesNo(fmt.Sprintf("Delete %q?", meta.Title), false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := handle.DeleteEntry(meta.ID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if err := saveHandle(st, handle); err != nil {
		return err
	}

	successColor.Printf("✓ Deleted %s\n", meta.Title)
	return nil
}
