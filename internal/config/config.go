package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration options for the application
type Config struct {
	// Root is the directory every patch path is resolved against.
	Root string `mapstructure:"root"`
	// MaxFuzz rejects plans whose fuzz exceeds it. Zero accepts any fuzz.
	MaxFuzz int `mapstructure:"max_fuzz"`

	DryRun  bool `mapstructure:"dry_run"`
	Confirm bool `mapstructure:"confirm"`
	Color   bool `mapstructure:"color"`

	// Logging configuration
	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

const (
	DefaultConfigDir = ".applypatch"
	DefaultEnvFile   = ".env"
	EnvPrefix        = "APPLYPATCH"
)

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"root":     "root",
	"max-fuzz": "max_fuzz",
	"dry-run":  "dry_run",
	"confirm":  "confirm",
	"color":    "color",
	"debug":    "debug",
	"log-file": "log_file",
}

// Options control where Load looks for configuration.
type Options struct {
	// ConfigDir holds config.yaml. Defaults to ~/.applypatch.
	ConfigDir string
	// EnvFile is loaded into the environment when present. Defaults to .env.
	EnvFile string
	// Flags that were set explicitly override every other source.
	Flags *pflag.FlagSet
}

// Load merges, from lowest to highest precedence: defaults, config.yaml,
// APPLYPATCH_* environment variables (including those from the env file) and
// explicitly set flags.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetDefault("root", getWorkingDirectory())
	v.SetDefault("max_fuzz", 0)
	v.SetDefault("dry_run", false)
	v.SetDefault("confirm", false)
	v.SetDefault("color", true)
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = getConfigDir()
	}
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.ConfigFile = v.ConfigFileUsed()

	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) normalize() error {
	if c.MaxFuzz < 0 {
		return fmt.Errorf("max_fuzz must not be negative, got %d", c.MaxFuzz)
	}
	if strings.TrimSpace(c.Root) == "" {
		c.Root = getWorkingDirectory()
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("error resolving root %s: %w", c.Root, err)
	}
	c.Root = root
	return nil
}

// FuzzAllowed reports whether a plan with the given fuzz may be applied.
func (c *Config) FuzzAllowed(fuzz int) bool {
	return c.MaxFuzz == 0 || fuzz <= c.MaxFuzz
}

// getConfigDir returns the path to the config directory
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, DefaultConfigDir)
}

// getWorkingDirectory returns the current working directory
func getWorkingDirectory() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
