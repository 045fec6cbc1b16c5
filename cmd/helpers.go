package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rsafevault/rsafe/internal/keychain"
	"github.com/rsafevault/rsafe/internal/state"
	"github.com/rsafevault/rsafe/internal/storage"
	"github.com/rsafevault/rsafe/internal/vault"
	"github.com/rsafevault/rsafe/internal/vaulterr"
)

// Package-level scanner for test mode stdin reading. Shared across ALL
// stdin reads (secrets, usernames, confirmations) to avoid buffering
// issues with piped input.
var (
	testStdinScanner *bufio.Scanner
	scannerOnce      sync.Once
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
)

// readLine reads a line from stdin in test mode using the shared scanner.
func readLine() (string, error) {
	if os.Getenv("RSAFE_TEST") != "1" {
		return "", fmt.Errorf("readLine should only be called in test mode")
	}

	scannerOnce.Do(func() {
		testStdinScanner = bufio.NewScanner(os.Stdin)
	})

	if !testStdinScanner.Scan() {
		if err := testStdinScanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", fmt.Errorf("no input provided")
	}
	return testStdinScanner.Text(), nil
}

// readLineInput reads a line from stdin, using the shared scanner in test
// mode or a fresh reader otherwise. General-purpose line reader for
// prompts that aren't secrets.
func readLineInput() (string, error) {
	if os.Getenv("RSAFE_TEST") == "1" {
		return readLine()
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret prompts on stderr and reads a secret without echoing it.
// Falls back to a plain read when stdin is not a terminal (piped input).
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if os.Getenv("RSAFE_TEST") == "1" {
		line, err := readLine()
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return line, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	secret, err := gopass.GetPasswdMasked()
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// readSecretConfirmed prompts for a secret twice and insists both entries
// match, so a typo in a fresh PIN can't lock the user out.
func readSecretConfirmed(prompt, confirmPrompt string) (string, error) {
	first, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := readSecret(confirmPrompt)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("entries do not match")
	}
	return first, nil
}

// promptYesNo prompts for yes/no confirmation, using defaultYes when the
// user just presses enter.
func promptYesNo(prompt string, defaultYes bool) (bool, error) {
	if defaultYes {
		fmt.Printf("%s (Y/n): ", prompt)
	} else {
		fmt.Printf("%s (y/N): ", prompt)
	}

	response, err := readLineInput()
	if err != nil {
		return false, err
	}
	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return defaultYes, nil
	}
	if response == "y" || response == "yes" {
		return true, nil
	}
	if response == "n" || response == "no" {
		return false, nil
	}
	return defaultYes, nil
}

// getKeychainUnavailableMessage returns a platform-specific message when
// the system keychain cannot be reached.
func getKeychainUnavailableMessage() string {
	unavailableMessages := map[string]string{
		"windows": "System keychain not available: Windows Credential Manager access denied.\nTroubleshooting: Check user permissions for Credential Manager access.",
		"darwin":  "System keychain not available: macOS Keychain access denied.\nTroubleshooting: Check Keychain Access.app permissions for rsafe.",
		"linux":   "System keychain not available: Linux Secret Service not running or accessible.\nTroubleshooting: Ensure gnome-keyring or KWallet is installed and running.",
	}

	msg, ok := unavailableMessages[runtime.GOOS]
	if !ok {
		return "System keychain not available on this platform."
	}
	return msg
}

// keychainForVault returns the keychain service scoped to vaultPath, so
// multiple vaults (e.g. a real one and a decoy) keep separate PINs.
func keychainForVault(vaultPath string) *keychain.Service {
	return keychain.New(filepath.Base(filepath.Dir(vaultPath)) + "-" + filepath.Base(vaultPath))
}

// openStorage resolves the effective vault path for cmd and returns a
// storage service for it.
func openStorage(cmd *cobra.Command) (*storage.Service, string, error) {
	vaultPath := GetVaultPath(cmd)
	st, err := storage.NewService(vaultPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open vault storage: %w", err)
	}
	return st, vaultPath, nil
}

// unlockFromStorage loads the blob at cmd's vault path and unlocks it:
// first with a keychain-stored PIN when one exists, then by prompting for
// the PIN or recovery phrase. The caller owns the returned handle and
// must Lock() it.
func unlockFromStorage(cmd *cobra.Command) (*vault.Handle, *storage.Service, error) {
	st, vaultPath, err := openStorage(cmd)
	if err != nil {
		return nil, nil, err
	}

	blob, err := st.LoadBlob()
	if err != nil {
		if errors.Is(err, storage.ErrVaultNotFound) {
			return nil, nil, fmt.Errorf("vault not found at %s\nRun 'rsafe init' to create a vault first", vaultPath)
		}
		return nil, nil, err
	}

	kc := keychainForVault(vaultPath)
	if pin, kerr := kc.Retrieve(); kerr == nil {
		if handle, uerr := vault.Unlock(blob, pin); uerr == nil {
			logVerbose("unlocked vault using keychain")
			return handle, st, nil
		}
		// Stored PIN no longer opens the vault (rekeyed elsewhere);
		// fall through to the prompt.
		logVerbose("keychain PIN rejected, prompting")
	}

	secret, err := readSecret("PIN or recovery phrase: ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read secret: %w", err)
	}

	handle, err := vault.Unlock(blob, secret)
	if err != nil {
		if errors.Is(err, vaulterr.ErrAuthFailed) {
			return nil, nil, fmt.Errorf("failed to unlock vault: wrong secret or corrupted vault")
		}
		return nil, nil, fmt.Errorf("failed to unlock vault: %w", err)
	}
	return handle, st, nil
}

// saveHandle exports the handle's current state as a fresh blob and
// atomically writes it to storage.
func saveHandle(st *storage.Service, handle *vault.Handle) error {
	blob, err := handle.Export()
	if err != nil {
		return fmt.Errorf("failed to export vault: %w", err)
	}
	if err := st.SaveBlob(blob, verboseSaveCallback()); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}
	return nil
}

// verboseSaveCallback returns a storage progress callback that narrates
// save stages in verbose mode, or nil otherwise.
func verboseSaveCallback() storage.ProgressCallback {
	if !IsVerbose() {
		return nil
	}
	return func(event string, metadata ...string) {
		fmt.Fprintf(os.Stderr, "[VERBOSE] save: %s %s\n", event, strings.Join(metadata, " "))
	}
}

// findEntry resolves query against the handle's entries: an exact title
// match wins, then a unique title prefix, then an entry ID string.
func findEntry(handle *vault.Handle, query string) (state.Metadata, error) {
	entries, err := handle.ListEntriesMetadata()
	if err != nil {
		return state.Metadata{}, err
	}

	for _, e := range entries {
		if e.Title == query {
			return e, nil
		}
	}

	var prefixMatches []state.Metadata
	lowered := strings.ToLower(query)
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.Title), lowered) {
			prefixMatches = append(prefixMatches, e)
		}
	}
	if len(prefixMatches) == 1 {
		return prefixMatches[0], nil
	}
	if len(prefixMatches) > 1 {
		titles := make([]string, len(prefixMatches))
		for i, e := range prefixMatches {
			titles[i] = e.Title
		}
		return state.Metadata{}, fmt.Errorf("ambiguous entry %q: matches %s", query, strings.Join(titles, ", "))
	}

	for _, e := range entries {
		if e.ID.String() == lowered {
			return e, nil
		}
	}

	return state.Metadata{}, fmt.Errorf("entry %q not found", query)
}

// logVerbose logs a message to stderr if verbose mode is enabled.
func logVerbose(format string, args ...interface{}) {
	if IsVerbose() {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(os.Stderr, "[VERBOSE] %s\n", msg)
	}
}

// formatRelativeTime converts a timestamp to a human-readable relative
// time for table output.
func formatRelativeTime(timestamp time.Time) string {
	duration := time.Since(timestamp)

	if duration < 0 {
		return "in the future"
	}
	if duration < time.Minute {
		return "just now"
	}
	if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	if duration < 7*24*time.Hour {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	if duration < 30*24*time.Hour {
		weeks := int(duration.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
	if duration < 365*24*time.Hour {
		months := int(duration.Hours() / (24 * 30))
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	}
	years := int(duration.Hours() / (24 * 365))
	if years == 1 {
		return "1 year ago"
	}
	return fmt.Sprintf("%d years ago", years)
}

// displayMnemonic formats a 24-word recovery phrase as a 4x6 grid. Shown
// exactly once, during vault initialization.
func displayMnemonic(mnemonic string) {
	words := strings.Fields(mnemonic)

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	headerColor.Println("Recovery Phrase")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Write down these %d words in order:\n\n", len(words))

	const rows = 6
	cols := (len(words) + rows - 1) / rows
	for row := 0; row < rows; row++ {
		line := ""
		for col := 0; col < cols; col++ {
			idx := col*rows + row
			if idx < len(words) {
				line += fmt.Sprintf("%3d. %-12s ", idx+1, words[idx])
			}
		}
		fmt.Println(line)
	}

	fmt.Println()
	warnColor.Println("⚠  WARNINGS:")
	fmt.Println("   • Anyone with this phrase can open your vault")
	fmt.Println("   • Store offline (write on paper, use a safe)")
	fmt.Println("   • It is shown only once and never stored anywhere")
	fmt.Println()
}
