package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rsafevault/rsafe/internal/zeroize"
)

var (
	getField       string
	getNoClipboard bool
	getQuiet       bool
	getMasked      bool
)

var getCmd = &cobra.Command{
	Use:     "get <title>",
	GroupID: "credentials",
	Short:   "Retrieve a credential from the vault",
	Long: `Get retrieves a credential and copies its password to the clipboard.

By default the password goes to the clipboard and the non-secret fields
are printed. Use --field to select a single field, --no-clipboard to
print the password instead of copying it, and --quiet to print only the
requested value (for scripts).`,
	Example: `  # Get a credential, password to clipboard
  rsafe get github

  # Print just the password (for scripts)
  rsafe get github --quiet

  # Print just the username
  rsafe get github --field username --quiet

  # Show the password in the terminal instead of the clipboard
  rsafe get github --no-clipboard

  # Show the notes
  rsafe get github --field notes`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().String("vault", "", "vault file path (overrides config)")
	getCmd.Flags().StringVarP(&getField, "field", "f", "password", "field to retrieve (password, username, url, notes)")
	getCmd.Flags().BoolVar(&getNoClipboard, "no-clipboard", false, "print the password instead of copying it")
	getCmd.Flags().BoolVarP(&getQuiet, "quiet", "q", false, "print only the requested value")
	getCmd.Flags().BoolVar(&getMasked, "masked", false, "print the password masked")
}

func runGet(cmd *cobra.Command, args []string) error {
	handle, _, err := unlockFromStorage(cmd)
	if err != nil {
		return err
	}
	defer handle.Lock()

	meta, err := findEntry(handle, args[0])
	if err != nil {
		return err
	}

	switch getField {
	case "username":
		fmt.Println(meta.Username)
		return nil
	case "url":
		fmt.Println(meta.URL)
		return nil
	case "notes":
		notes, err := handle.GetEntryNotes(meta.ID)
		if err != nil {
			return err
		}
		defer zeroize.Bytes(notes)
		fmt.Println(string(notes))
		return nil
	case "password":
		// handled below
	default:
		return fmt.Errorf("unknown field %q (expected password, username, url, or notes)", getField)
	}

	password, err := handle.GetEntryPassword(meta.ID)
	if err != nil {
		return err
	}
	defer zeroize.Bytes(password)

	if getQuiet {
		fmt.Println(string(password))
		return nil
	}

	if getNoClipboard || getMasked {
		shown := string(password)
		if getMasked {
			shown = strings.Repeat("*", len(password))
		}
		fmt.Printf("Password: %s\n", shown)
	} else {
		if err := clipboard.WriteAll(string(password)); err != nil {
			fmt.Fprintf(os.Stderr, "⚠  Failed to copy password to clipboard: %v\n", err)
			fmt.Fprintln(os.Stderr, "   Re-run with --no-clipboard to print it instead")
		} else {
			successColor.Println("🔐 Password copied to clipboard")
		}
	}

	fmt.Printf("Title:    %s\n", meta.Title)
	if meta.Username != "" {
		fmt.Printf("Username: %s\n", meta.Username)
	}
	if meta.URL != "" {
		fmt.Printf("URL:      %s\n", meta.URL)
	}
	if len(meta.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(meta.Tags, ", "))
	}
	fmt.Printf("Updated:  %s\n", formatRelativeTime(meta.UpdatedAt))
	return nil
}
