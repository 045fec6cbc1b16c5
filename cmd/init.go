package cmd

import (
	"fmt"
	"os"

	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	"github.com/rsafevault/rsafe/internal/codec"
	"github.com/rsafevault/rsafe/internal/vault"
)

var (
	initUseKeychain bool
	initDecoy       bool
	initShowQR      bool
	initQRFile      string
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "vault",
	Short:   "Initialize a new vault",
	Long: `Init creates a new encrypted vault file.

You will be prompted to choose a PIN, and a 24-word recovery phrase is
generated for you. Both secrets open the same vault: the PIN is for
everyday use, the phrase is for when the PIN is forgotten. The phrase is
displayed exactly once and never stored anywhere — write it down.

By default the vault is stored at ~/.rsafe/vault.rsafe. To use a custom
location, pass --vault or set vault_path in your config file.

Use --decoy to create a decoy vault: a second, independent vault with its
own PIN and phrase that can be handed over under duress. Fill it with
plausible entries using 'rsafe add --vault <decoy-path>'.`,
	Example: `  # Initialize a new vault
  rsafe init

  # Initialize with the PIN stored in the system keychain
  rsafe init --use-keychain

  # Show the recovery phrase as a QR code for phone backup
  rsafe init --qr

  # Create a decoy vault next to the real one
  rsafe init --decoy --vault ~/.rsafe/decoy.rsafe`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("vault", "", "vault file path (overrides config)")
	initCmd.Flags().BoolVar(&initUseKeychain, "use-keychain", false, "store the PIN in the system keychain")
	initCmd.Flags().BoolVar(&initDecoy, "decoy", false, "create a decoy vault instead of a real one")
	initCmd.Flags().BoolVar(&initShowQR, "qr", false, "display the recovery phrase as a terminal QR code")
	initCmd.Flags().StringVar(&initQRFile, "qr-file", "", "write the recovery phrase QR code to a PNG file")
}

func runInit(cmd *cobra.Command, args []string) error {
	st, vaultPath, err := openStorage(cmd)
	if err != nil {
		return err
	}

	if st.VaultExists() {
		return fmt.Errorf("vault already exists at %s\n\nTo create a vault elsewhere, pass --vault or set vault_path in your config file", vaultPath)
	}

	vaultType := codec.VaultTypeReal
	if initDecoy {
		vaultType = codec.VaultTypeDecoy
	}

	fmt.Println("🔐 Initializing new vault")
	fmt.Printf("📁 Vault location: %s\n\n", vaultPath)

	pin, err := readSecretConfirmed("Choose a PIN: ", "Confirm PIN: ")
	if err != nil {
		return fmt.Errorf("failed to read PIN: %w", err)
	}

	// 256 bits of entropy gives the full 24-word phrase.
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return fmt.Errorf("failed to generate recovery entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return fmt.Errorf("failed to generate recovery phrase: %w", err)
	}

	cfg := GetConfig()
	blob, err := vault.Create(vaultType, pin, mnemonic, cfg.PinParams.KDF(), cfg.RecoveryParams.KDF())
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	if err := st.SaveBlob(blob, verboseSaveCallback()); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}

	displayMnemonic(mnemonic)

	if initShowQR {
		fmt.Println("Scan to back up the recovery phrase:")
		qrterminal.GenerateWithConfig(mnemonic, qrterminal.Config{
			Level:     qrterminal.L,
			Writer:    os.Stdout,
			BlackChar: qrterminal.BLACK,
			WhiteChar: qrterminal.WHITE,
			QuietZone: 1,
		})
		fmt.Println()
	}

	if initQRFile != "" {
		if err := qrcode.WriteFile(mnemonic, qrcode.Medium, 512, initQRFile); err != nil {
			warnColor.Printf("⚠  Failed to write QR file: %v\n", err)
		} else {
			fmt.Printf("📄 Recovery phrase QR written to %s — print it, then delete the file\n", initQRFile)
		}
	}

	if initUseKeychain {
		kc := keychainForVault(vaultPath)
		if !kc.IsAvailable() {
			warnColor.Println(getKeychainUnavailableMessage())
		} else if err := kc.Store(pin); err != nil {
			warnColor.Printf("⚠  Failed to store PIN in keychain: %v\n", err)
		} else {
			fmt.Println("🔑 PIN stored in system keychain")
		}
	}

	if initDecoy {
		successColor.Println("✓ Decoy vault initialized")
		fmt.Println("  Add plausible entries with 'rsafe add --vault " + vaultPath + "'")
	} else {
		successColor.Println("✓ Vault initialized")
	}
	return nil
}
