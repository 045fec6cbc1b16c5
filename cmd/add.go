package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsafevault/rsafe/internal/zeroize"
)

var (
	addUsername string
	addURL      string
	addNotes    string
	addTags     []string
)

var addCmd = &cobra.Command{
	Use:     "add <title>",
	GroupID: "credentials",
	Short:   "Add a new credential to the vault",
	Long: `Add stores a new credential in your vault.

You will be prompted for the password without echo. Username, URL, notes,
and tags can be given as flags or left empty.`,
	Example: `  # Add a credential, prompting for the password
  rsafe add github --username alice

  # Add with a URL and tags
  rsafe add github --username alice --url https://github.com --tags work,code

  # Add into a decoy vault
  rsafe add github --vault ~/.rsafe/decoy.rsafe`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().String("vault", "", "vault file path (overrides config)")
	addCmd.Flags().StringVarP(&addUsername, "username", "u", "", "username for the credential")
	addCmd.Flags().StringVar(&addURL, "url", "", "URL for the credential")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-form notes")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "comma-separated tags")
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(args[0])
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	handle, st, err := unlockFromStorage(cmd)
	if err != nil {
		return err
	}
	defer handle.Lock()

	password, err := readSecret("Password for " + title + ": ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	passwordBytes := []byte(password)
	defer zeroize.Bytes(passwordBytes)

	id, err := handle.AddEntry(title, addUsername, passwordBytes, addURL, []byte(addNotes), addTags)
	if err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}

	if err := saveHandle(st, handle); err != nil {
		return err
	}

	successColor.Printf("✓ Added %s\n", title)
	logVerbose("entry id: %s", id)
	return nil
}
