package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeApp()
	c.normalizeMediaServers()
	c.normalizeClient()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeApp() {
	if value, ok := os.LookupEnv("REQUESTARR_URL"); ok && strings.TrimSpace(value) != "" {
		c.App.URL = value
	}
	if c.App.APIKey == "" {
		if value, ok := os.LookupEnv("REQUESTARR_API_KEY"); ok {
			c.App.APIKey = value
		}
	}
	c.App.URL = strings.TrimRight(strings.TrimSpace(c.App.URL), "/")
	if c.App.URL == "" {
		c.App.URL = defaultAppURL
	}
	c.App.APIKey = strings.TrimSpace(c.App.APIKey)
	c.App.Locale = NormalizeLocale(c.App.Locale)
	if c.App.Locale == "" {
		c.App.Locale = defaultLocale
	}
}

func (c *Config) normalizeMediaServers() {
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeClient() {
	if c.Client.TimeoutSeconds <= 0 {
		c.Client.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Client.BreakerMaxFailures <= 0 {
		c.Client.BreakerMaxFailures = defaultBreakerMaxFailures
	}
	if c.Client.BreakerTimeoutSeconds <= 0 {
		c.Client.BreakerTimeoutSeconds = defaultBreakerTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeLocale fixes the spelling of a locale tag without changing which tag
// it is: "pt_br" becomes "pt-BR" and "zh-hant" becomes "zh-Hant", but deprecated
// codes such as "iw" are kept as written.
func NormalizeLocale(value string) string {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(value), "_", "-"), "-")
	for i, part := range parts {
		switch {
		case i == 0:
			parts[i] = strings.ToLower(part)
		case len(part) == 2:
			parts[i] = strings.ToUpper(part)
		case len(part) == 4:
			parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		default:
			parts[i] = strings.ToLower(part)
		}
	}
	return strings.Join(parts, "-")
}
