package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateApp(); err != nil {
		return err
	}
	if err := c.validateMediaServers(); err != nil {
		return err
	}
	if err := c.validateSettings(); err != nil {
		return err
	}
	if c.Notifications.NtfyTopic != "" {
		if err := validateURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
			return err
		}
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateApp() error {
	if err := validateURL("app.url", c.App.URL); err != nil {
		return err
	}
	if _, err := language.Parse(c.App.Locale); err != nil {
		return fmt.Errorf("app.locale: %q is not a valid language tag: %w", c.App.Locale, err)
	}
	return nil
}

func (c *Config) validateMediaServers() error {
	if c.Plex.URL != "" {
		if err := validateURL("plex.url", c.Plex.URL); err != nil {
			return err
		}
		if c.Plex.Token == "" {
			return errors.New("plex.token must be set when plex.url is configured")
		}
	}
	if c.Jellyfin.URL != "" {
		if err := validateURL("jellyfin.url", c.Jellyfin.URL); err != nil {
			return err
		}
		if c.Jellyfin.APIKey == "" {
			return errors.New("jellyfin.api_key must be set when jellyfin.url is configured")
		}
	}
	return nil
}

func (c *Config) validateSettings() error {
	if c.Settings.RefreshIntervalSeconds < 0 {
		return errors.New("settings.refresh_interval_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}
