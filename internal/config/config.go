// Package config loads the settings for the secretcell command from the environment and command line flags.
//
// Environment variables are read first (all prefixed with SECRETCELL_), and flags override them.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/saylorsolutions/secretcell/pkg/cell"
	"github.com/saylorsolutions/secretcell/pkg/keystore"
	flag "github.com/spf13/pflag"
)

const EnvPrefix = "SECRETCELL_"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	// SettingsDSN is the SQLite database that holds plain settings.
	// Env: SECRETCELL_SETTINGS_DSN
	SettingsDSN string `env:"SETTINGS_DSN" envDefault:"secretcell.db"`

	// ResourceFile is the YAML file that API tokens are read from and generated into.
	// Env: SECRETCELL_RESOURCE_FILE
	ResourceFile string `env:"RESOURCE_FILE" envDefault:"tokens.yaml"`

	// Section is the section of ResourceFile that holds tokens.
	// Env: SECRETCELL_SECTION
	Section string `env:"SECTION" envDefault:"Info"`

	// Identifier groups values in the OS keyring.
	// Env: SECRETCELL_KEYRING_ID
	Identifier string `env:"KEYRING_ID" envDefault:"datasecurityworkshop"`

	// Iterations is the scrypt cost used for newly encrypted values.
	// Env: SECRETCELL_KDF_ITERATIONS
	Iterations uint64 `env:"KDF_ITERATIONS" envDefault:"32768"`

	// ObfuscationSalt is the hex encoded salt for obfuscated tokens, as printed by gen-salt.
	// The built in salt is used when empty.
	// Env: SECRETCELL_OBFUSCATION_SALT
	ObfuscationSalt string `env:"OBFUSCATION_SALT"`

	// Verbose enables debug logging.
	// Env: SECRETCELL_VERBOSE
	Verbose bool `env:"VERBOSE"`
}

// FromEnv populates a Config from environ, which is typically the process environment.
// A nil environ reads the process environment.
func FromEnv(environ map[string]string) (*Config, error) {
	cfg := new(Config)
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}

// BindFlags registers a flag for each setting, using the current values as defaults.
func (c *Config) BindFlags(flags *flag.FlagSet) {
	flags.StringVarP(&c.SettingsDSN, "settings", "s", c.SettingsDSN, "SQLite database file used for plain settings.")
	flags.StringVarP(&c.ResourceFile, "resources", "r", c.ResourceFile, "YAML file holding API tokens.")
	flags.StringVar(&c.Section, "section", c.Section, "Section of the resource file that holds API tokens.")
	flags.StringVar(&c.Identifier, "keyring-id", c.Identifier, "Identifier used to group values in the OS keyring.")
	flags.Uint64Var(&c.Iterations, "iterations", c.Iterations, "scrypt iterations used for new encrypted values, must be a power of 2.")
	flags.StringVar(&c.ObfuscationSalt, "obfuscation-salt", c.ObfuscationSalt, "Hex encoded salt for obfuscated tokens, as printed by gen-salt.")
	flags.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Enables debug logging.")
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	switch {
	case len(c.SettingsDSN) == 0:
		return fmt.Errorf("%w: settings database is required", ErrInvalidConfig)
	case len(c.ResourceFile) == 0:
		return fmt.Errorf("%w: resource file is required", ErrInvalidConfig)
	case len(c.Section) == 0:
		return fmt.Errorf("%w: section is required", ErrInvalidConfig)
	case len(c.Identifier) == 0:
		return fmt.Errorf("%w: keyring identifier is required", ErrInvalidConfig)
	}
	if _, err := c.KeyGenerator(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Salt(); err != nil {
		return err
	}
	return nil
}

// Salt decodes ObfuscationSalt, returning nil if it isn't set.
func (c *Config) Salt() ([]byte, error) {
	if len(c.ObfuscationSalt) == 0 {
		return nil, nil
	}
	salt, err := hex.DecodeString(c.ObfuscationSalt)
	if err != nil {
		return nil, fmt.Errorf("%w: obfuscation salt must be hex encoded: %v", ErrInvalidConfig, err)
	}
	return salt, nil
}

// KeyGenerator creates the KDF settings for new encrypted values.
func (c *Config) KeyGenerator() (*cell.KeyGenerator, error) {
	return cell.NewKeyGenerator(cell.SetIterations(c.Iterations))
}

// StoreOptions translates the configuration into keystore options.
func (c *Config) StoreOptions() ([]keystore.Option, error) {
	opts := []keystore.Option{
		keystore.WithSection(c.Section),
		keystore.WithSecureIdentifier(c.Identifier),
	}
	salt, err := c.Salt()
	if err != nil {
		return nil, err
	}
	if salt != nil {
		opts = append(opts, keystore.WithObfuscationSalt(salt))
	}
	return opts, nil
}
