package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsafevault/rsafe/internal/storage"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "vault",
	Short:   "Export the vault as a fresh encrypted blob",
	Long: `Export re-encrypts the vault under a fresh nonce and writes the
resulting blob to a new file. The export is a complete, self-contained
vault: it opens with the same PIN and recovery phrase as the original,
and is suitable for offline backup or transfer to another machine.

The content never leaves the file in cleartext — an export is ciphertext
from the first byte.`,
	Example: `  # Export the vault for offline backup
  rsafe export --output vault-backup.rsafe`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("vault", "", "vault file path (overrides config)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "destination file for the exported blob (required)")
	_ = exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	handle, _, err := unlockFromStorage(cmd)
	if err != nil {
		return err
	}
	defer handle.Lock()

	blob, err := handle.Export()
	if err != nil {
		return fmt.Errorf("failed to export vault: %w", err)
	}

	dest, err := storage.NewService(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to open export destination: %w", err)
	}
	if err := dest.SaveBlob(blob, verboseSaveCallback()); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	successColor.Printf("✓ Vault exported to %s\n", exportOutput)
	return nil
}
