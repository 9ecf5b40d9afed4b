// Package config loads the application configuration from a yaml file,
// environment variables (CARDWHEEL_ prefix), and command-line flags, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Sync    SyncConfig    `koanf:"sync"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// SyncConfig holds deck-source sync settings.
type SyncConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{ListenAddr: "127.0.0.1:8710"},
		Storage: StorageConfig{Path: "cardwheel.db"},
		Sync:    SyncConfig{ReposDir: "repos"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, an optional yaml file, the
// environment, and flags, then validates the result.
func Load(configPath string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	// Defaults go into k first so later layers, including unchanged flags,
	// only overwrite keys they actually provide.
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Double underscore separates sections so field names may keep single
	// underscores: CARDWHEEL_SERVER__LISTEN_ADDR → server.listen_addr.
	err := k.Load(env.Provider("CARDWHEEL_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CARDWHEEL_")), "__", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
