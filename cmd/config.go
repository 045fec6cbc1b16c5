package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rsafevault/rsafe/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "utilities",
	Short:   "View or change rsafe configuration",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set writes a configuration value to the config file.

Keys:
  vault_path                   default vault file location
  pin_params.memory_kib        Argon2id memory cost for new PIN wraps (KiB)
  pin_params.iterations        Argon2id time cost for new PIN wraps
  pin_params.parallelism       Argon2id lanes for new PIN wraps
  recovery_params.memory_kib   same, for the recovery method
  recovery_params.iterations
  recovery_params.parallelism

KDF parameters only affect vaults created (or rekeyed) afterwards;
existing vaults keep the parameters recorded in their headers.`,
	Example: `  # Move the default vault
  rsafe config set vault_path ~/secrets/vault.rsafe

  # Raise the PIN KDF memory cost to 128 MiB
  rsafe config set pin_params.memory_kib 131072`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	path, err := config.GetConfigPath()
	if err != nil {
		path = "(unresolvable)"
	}

	fmt.Printf("Config file: %s\n\n", path)
	fmt.Printf("vault_path: %s\n", cfg.VaultPath)
	fmt.Printf("pin_params:\n")
	fmt.Printf("  memory_kib:  %d\n", cfg.PinParams.MemoryKiB)
	fmt.Printf("  iterations:  %d\n", cfg.PinParams.Iterations)
	fmt.Printf("  parallelism: %d\n", cfg.PinParams.Parallelism)
	fmt.Printf("recovery_params:\n")
	fmt.Printf("  memory_kib:  %d\n", cfg.RecoveryParams.MemoryKiB)
	fmt.Printf("  iterations:  %d\n", cfg.RecoveryParams.Iterations)
	fmt.Printf("  parallelism: %d\n", cfg.RecoveryParams.Parallelism)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("cannot resolve config path: %w", err)
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	parseUint32 := func() (uint32, error) {
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return uint32(n), nil
	}
	parseUint8 := func() (uint8, error) {
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return uint8(n), nil
	}

	switch key {
	case "vault_path":
		cfg.VaultPath = value
	case "pin_params.memory_kib":
		n, err := parseUint32()
		if err != nil {
			return err
		}
		cfg.PinParams.MemoryKiB = n
	case "pin_params.iterations":
		n, err := parseUint32()
		if err != nil {
			return err
		}
		cfg.PinParams.Iterations = n
	case "pin_params.parallelism":
		n, err := parseUint8()
		if err != nil {
			return err
		}
		cfg.PinParams.Parallelism = n
	case "recovery_params.memory_kib":
		n, err := parseUint32()
		if err != nil {
			return err
		}
		cfg.RecoveryParams.MemoryKiB = n
	case "recovery_params.iterations":
		n, err := parseUint32()
		if err != nil {
			return err
		}
		cfg.RecoveryParams.Iterations = n
	case "recovery_params.parallelism":
		n, err := parseUint8()
		if err != nil {
			return err
		}
		cfg.RecoveryParams.Parallelism = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := cfg.PinParams.Validate(); err != nil {
		return err
	}
	if err := cfg.RecoveryParams.Validate(); err != nil {
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	// The cached config is stale now; drop it so a later command in the
	// same process re-reads the file.
	loadedConfig = nil

	successColor.Printf("✓ %s set\n", key)
	return nil
}
