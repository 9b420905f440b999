package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Minimum PBKDF2 work factor. Configurations below this are raised to it.
const MinPBKDF2Iterations = 100_000

// Config holds all application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Session  SessionConfig  `mapstructure:"session"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"` // bbolt database file
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // unlocked PIN lifetime
}

type SecurityConfig struct {
	PBKDF2Iterations int `mapstructure:"pbkdf2_iterations"`
	// AllowPlaintextFallback permits storing an encrypted-class record as
	// plaintext when no PIN is available. Off by default: writing secrets
	// in the clear is an explicit operator decision, not a silent downgrade.
	AllowPlaintextFallback bool `mapstructure:"allow_plaintext_fallback"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// DefaultStoragePath returns the default database location under the
// user's home directory.
func DefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "zenledger.db"
	}
	return filepath.Join(home, ".zenledger", "zenledger.db")
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: ZL.
// Nested keys use underscore: ZL_STORAGE_PATH, ZL_SESSION_TTL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("storage.path", DefaultStoragePath())
	v.SetDefault("session.ttl", "1h")
	v.SetDefault("security.pbkdf2_iterations", MinPBKDF2Iterations)
	v.SetDefault("security.allow_plaintext_fallback", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(DefaultStoragePath()))
	}

	// Environment variables: ZL_STORAGE_PATH -> storage.path
	v.SetEnvPrefix("ZL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars and defaults can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Security.PBKDF2Iterations < MinPBKDF2Iterations {
		c.Security.PBKDF2Iterations = MinPBKDF2Iterations
	}
	return nil
}
