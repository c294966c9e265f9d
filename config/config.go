// Package config loads zkshell settings from an optional TOML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath names the environment variable holding an explicit config file path.
const EnvConfigPath = "ZKSHELL_CONFIG"

// ErrNoHosts is returned by Validate when no connection target is known.
var ErrNoHosts = errors.New("config: no hosts given")

// Config holds every setting the shell reads at startup.
type Config struct {
	Hosts          string   `toml:"hosts"`
	DefaultPath    string   `toml:"default_path"`
	Editor         string   `toml:"editor"`
	ScratchDir     string   `toml:"scratch_dir"`
	SessionTimeout Duration `toml:"session_timeout"`
	LogLevel       string   `toml:"log_level"`
}

// Duration wraps time.Duration for TOML
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DefaultPath:    "/",
		ScratchDir:     os.TempDir(),
		SessionTimeout: Duration{10 * time.Second},
		LogLevel:       "warn",
	}
}

// Load reads the file at path over the defaults. An empty path falls back to
// $ZKSHELL_CONFIG and then to $HOME/.config/zkshell/config.toml; a missing
// default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg.withEnv(), nil
		}
		path = filepath.Join(home, ".config", "zkshell", "config.toml")
	}

	path = os.ExpandEnv(path)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg.withEnv(), nil
		}
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg.withEnv(), nil
}

// withEnv fills settings that the environment provides when the file did not.
func (c *Config) withEnv() *Config {
	if c.Editor == "" {
		c.Editor = os.Getenv("EDITOR")
	}
	return c
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if c.DefaultPath == "" {
		c.DefaultPath = defaults.DefaultPath
	}
	if c.ScratchDir == "" {
		c.ScratchDir = defaults.ScratchDir
	}
	if c.SessionTimeout.Duration <= 0 {
		c.SessionTimeout = defaults.SessionTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// Validate reports settings the shell cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hosts) == "" {
		return ErrNoHosts
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name onto slog's levels.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", name)
	}
	return level, nil
}
