package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// App contains connection details for the media-request application being set up.
type App struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	Locale string `toml:"locale"`
}

// Client contains outbound HTTP settings shared by every application call.
type Client struct {
	TimeoutSeconds        int `toml:"timeout_seconds"`
	BreakerMaxFailures    int `toml:"breaker_max_failures"`
	BreakerTimeoutSeconds int `toml:"breaker_timeout_seconds"`
}

// Settings contains public settings cache behaviour.
type Settings struct {
	// RefreshIntervalSeconds enables background revalidation when positive.
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
}

// Plex contains the Plex server used to verify the media server step.
type Plex struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// Jellyfin contains the Jellyfin (or Emby) server used to verify the media server step.
type Jellyfin struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// Notifications contains the ntfy endpoint that receives setup outcomes.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/requestarr. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Paths contains local state locations.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for requestarr.
//
// Configuration sections by subsystem:
//   - App: application base URL, API key, and the locale persisted on finalize
//   - Client: request timeout and circuit breaker thresholds
//   - Settings: public settings revalidation policy
//   - Plex / Jellyfin: media server probes for the media server step
//   - Notifications: ntfy topic for setup outcomes
//   - Paths: journal database and setup lock location
//   - Logging: log format and level
type Config struct {
	App           App           `toml:"app"`
	Client        Client        `toml:"client"`
	Settings      Settings      `toml:"settings"`
	Plex          Plex          `toml:"plex"`
	Jellyfin      Jellyfin      `toml:"jellyfin"`
	Notifications Notifications `toml:"notifications"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("requestarr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local state directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// JournalPath returns the location of the setup journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the location of the setup session lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "setup.lock")
}

// RequestTimeout returns the per-request deadline for application calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// BreakerTimeout returns how long the transport breaker stays open.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.Client.BreakerTimeoutSeconds) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// RefreshInterval returns the background revalidation interval; zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	if c.Settings.RefreshIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Settings.RefreshIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
