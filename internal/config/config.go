// Package config loads the small amount of host-side configuration the CLI
// needs: where the vault file lives and what KDF cost parameters new vaults
// should use. Everything about the vault's own contents lives inside the
// encrypted blob; nothing here is security-sensitive.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/rsafevault/rsafe/internal/kdf"
)

// Params mirrors kdf.Params with the config file's snake_case keys.
type Params struct {
	MemoryKiB   uint32 `mapstructure:"memory_kib"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
}

// KDF converts p to the core's parameter type.
func (p Params) KDF() kdf.Params {
	return kdf.Params{MemoryKiB: p.MemoryKiB, Iterations: p.Iterations, Parallelism: p.Parallelism}
}

// Validate rejects parameter combinations the KDF would reject.
func (p Params) Validate() error { return p.KDF().Validate() }

func defaultParams() Params {
	d := kdf.DefaultParams
	return Params{MemoryKiB: d.MemoryKiB, Iterations: d.Iterations, Parallelism: d.Parallelism}
}

// Config is the root configuration object.
type Config struct {
	VaultPath      string `mapstructure:"vault_path"`
	PinParams      Params `mapstructure:"pin_params"`
	RecoveryParams Params `mapstructure:"recovery_params"`
}

// GetDefaults returns the default configuration.
func GetDefaults() *Config {
	return &Config{
		VaultPath:      DefaultVaultPath(),
		PinParams:      defaultParams(),
		RecoveryParams: defaultParams(),
	}
}

// DefaultVaultPath returns the OS-appropriate default vault file location.
func DefaultVaultPath() string {
	if envPath := os.Getenv("RSAFE_VAULT"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "vault.rsafe"
	}
	return filepath.Join(home, ".rsafe", "vault.rsafe")
}

// GetConfigPath returns the OS-appropriate config file path.
func GetConfigPath() (string, error) {
	if envPath := os.Getenv("RSAFE_CONFIG"); envPath != "" {
		return envPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		configDir = filepath.Join(home, ".rsafe")
	} else {
		configDir = filepath.Join(configDir, "rsafe")
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// LoadFromPath loads configuration from a specific file path, falling back
// to defaults when the file does not exist.
func LoadFromPath(configPath string) (*Config, error) {
	defaults := GetDefaults()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetDefault("vault_path", defaults.VaultPath)
	v.SetDefault("pin_params.memory_kib", defaults.PinParams.MemoryKiB)
	v.SetDefault("pin_params.iterations", defaults.PinParams.Iterations)
	v.SetDefault("pin_params.parallelism", defaults.PinParams.Parallelism)
	v.SetDefault("recovery_params.memory_kib", defaults.RecoveryParams.MemoryKiB)
	v.SetDefault("recovery_params.iterations", defaults.RecoveryParams.Iterations)
	v.SetDefault("recovery_params.parallelism", defaults.RecoveryParams.Parallelism)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.PinParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pin_params: %w", err)
	}
	if err := cfg.RecoveryParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recovery_params: %w", err)
	}
	return &cfg, nil
}

// Load loads configuration from the default config path.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return GetDefaults(), nil
	}
	return LoadFromPath(path)
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	v := viper.New()
	v.Set("vault_path", cfg.VaultPath)
	v.Set("pin_params.memory_kib", cfg.PinParams.MemoryKiB)
	v.Set("pin_params.iterations", cfg.PinParams.Iterations)
	v.Set("pin_params.parallelism", cfg.PinParams.Parallelism)
	v.Set("recovery_params.memory_kib", cfg.RecoveryParams.MemoryKiB)
	v.Set("recovery_params.iterations", cfg.RecoveryParams.Iterations)
	v.Set("recovery_params.parallelism", cfg.RecoveryParams.Parallelism)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}
