package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rsafevault/rsafe/internal/config"
)

var (
	cfgFile string
	verbose bool

	version = "dev"
	commit  = "none"
	date    = "unknown"

	rootCmd = &cobra.Command{
		Use:   "rsafe",
		Short: "A local-only encrypted secret vault",
		Long: `rsafe is a local-only encrypted secret vault. A single vault file holds
every credential, unlockable by two independent secrets: a short PIN for
everyday use and a recovery phrase for when the PIN is forgotten. Both
methods wrap the same vault key, so either one opens the same vault.

Examples:
  # Initialize a new vault
  rsafe init

  # Add a new credential
  rsafe add github

  # Retrieve a credential
  rsafe get github

  # List all credentials
  rsafe list`,
		PersistentPreRunE: initConfig,
	}
)

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if strings.Contains(err.Error(), "flag") {
			return fmt.Errorf("%w\n\nrun 'rsafe --help' for usage", err)
		}
		return err
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/rsafe/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddGroup(
		&cobra.Group{ID: "vault", Title: "Vault Management:"},
		&cobra.Group{ID: "credentials", Title: "Credential Operations:"},
		&cobra.Group{ID: "utilities", Title: "Utilities:"},
	)
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

// loadedConfig holds the configuration resolved by initConfig, so
// subcommands don't each have to resolve --config/env/default themselves.
var loadedConfig *config.Config

// initConfig is the PersistentPreRunE hook: it resolves the config file
// (flag, env, or default location) before any subcommand runs.
func initConfig(cmd *cobra.Command, args []string) error {
	switch cmd.Name() {
	case "version", "help":
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromPath(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	loadedConfig = cfg
	return nil
}

// GetVaultPath returns the effective vault path: the --vault flag if the
// current command set one, otherwise the configured or default path.
func GetVaultPath(cmd *cobra.Command) string {
	if flag := cmd.Flags().Lookup("vault"); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	if loadedConfig != nil && loadedConfig.VaultPath != "" {
		return loadedConfig.VaultPath
	}
	return config.DefaultVaultPath()
}

// GetConfig returns the configuration resolved for this invocation.
func GetConfig() *config.Config {
	if loadedConfig == nil {
		loadedConfig = config.GetDefaults()
	}
	return loadedConfig
}
