package wizard

import (
	"context"
	"log/slog"

	"requestarr/internal/appclient"
	"requestarr/internal/logging"
	"requestarr/internal/services"
)

// RootRoute is where the host navigates once setup is committed.
const RootRoute = "/"

// SetupAPI is the part of the application API that commits setup.
type SetupAPI interface {
	Initialize(ctx context.Context) (appclient.InitializeResponse, error)
	SaveMainSettings(ctx context.Context, update appclient.MainSettingsUpdate) error
}

// Invalidator schedules a refresh of the cached public settings.
type Invalidator interface {
	Invalidate()
}

// Navigator hands control back to the host application.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}

// Result reports whether finalize committed setup.
type Result struct {
	Committed bool
	Locale    string
}

// Sequencer performs the ordered calls that finish setup.
type Sequencer struct {
	api       SetupAPI
	settings  Invalidator
	navigator Navigator
	logger    *slog.Logger
}

// NewSequencer wires a Sequencer.
func NewSequencer(api SetupAPI, settings Invalidator, navigator Navigator, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		api:       api,
		settings:  settings,
		navigator: navigator,
		logger:    logging.NewComponentLogger(logger, "finalize"),
	}
}

// Finalize initializes the application and, only if it reports initialized,
// persists locale, invalidates the public settings, and navigates to the root
// route, in that order. The invalidation is not awaited, so the next page may
// briefly read the previous or default snapshot.
//
// onResponse, when set, runs as soon as the initialize call returns, before
// anything else is sent. The locale is persisted exactly as given.
//
// initialized=false is not an error: nothing else is called and the caller may
// try again.
func (s *Sequencer) Finalize(ctx context.Context, locale string, onResponse func()) (Result, error) {
	logger := logging.WithContext(ctx, s.logger)
	result := Result{Locale: locale}

	resp, err := s.api.Initialize(ctx)
	if onResponse != nil {
		onResponse()
	}
	if err != nil {
		logger.Error("initialize request failed", logging.Error(err))
		return result, err
	}
	if !resp.Initialized {
		logger.Info("application not ready to initialize; staying on services step")
		return result, nil
	}

	if err := s.api.SaveMainSettings(ctx, appclient.MainSettingsUpdate{Locale: locale}); err != nil {
		logger.Error("persist locale failed", slog.String("locale", locale), logging.Error(err))
		return result, err
	}
	if s.settings != nil {
		s.settings.Invalidate()
	}
	result.Committed = true

	if s.navigator != nil {
		if err := s.navigator.Navigate(ctx, RootRoute); err != nil {
			logger.Warn("navigation after finalize failed", slog.String("route", RootRoute), logging.Error(err))
			return result, services.Wrap(services.ErrTransport, "finalize", "navigate", RootRoute, err)
		}
	}
	logger.Info("setup finalized", slog.String("locale", locale))
	return result, nil
}
