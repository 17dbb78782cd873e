package config

const (
	defaultConfigPath            = "~/.config/requestarr/config.toml"
	defaultAppURL                = "http://127.0.0.1:5055"
	defaultLocale                = "en"
	defaultTimeoutSeconds        = 30
	defaultBreakerMaxFailures    = 5
	defaultBreakerTimeoutSeconds = 30
	defaultNotifyTimeoutSeconds  = 10
	defaultStateDir              = "~/.local/share/requestarr"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		App: App{
			URL:    defaultAppURL,
			Locale: defaultLocale,
		},
		Client: Client{
			TimeoutSeconds:        defaultTimeoutSeconds,
			BreakerMaxFailures:    defaultBreakerMaxFailures,
			BreakerTimeoutSeconds: defaultBreakerTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
