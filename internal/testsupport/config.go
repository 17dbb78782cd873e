package testsupport

import (
	"path/filepath"
	"testing"

	"requestarr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config with a unique temp state directory per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.App.APIKey = "test-key"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Client.TimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAppURL points the config at a test server.
func WithAppURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.App.URL = url
	}
}

// WithPlex configures the Plex probe.
func WithPlex(url, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Plex.URL = url
		b.cfg.Plex.Token = token
	}
}

// WithJellyfin configures the Jellyfin probe.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jellyfin.URL = url
		b.cfg.Jellyfin.APIKey = apiKey
	}
}

// WithLocale sets the locale persisted on finalize.
func WithLocale(locale string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.App.Locale = locale
	}
}
