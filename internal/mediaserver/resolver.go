package mediaserver

import (
	"context"
	"errors"
	"log/slog"

	"requestarr/internal/logging"
	"requestarr/internal/services"
)

// TypeReader reads the media server type from the application's main settings.
type TypeReader interface {
	MediaServerType(ctx context.Context) (Type, error)
}

// Resolver learns which backend the application is configured for once the
// operator has signed in.
type Resolver struct {
	reader TypeReader
	logger *slog.Logger
}

// NewResolver constructs a Resolver around the main settings reader.
func NewResolver(reader TypeReader, logger *slog.Logger) *Resolver {
	return &Resolver{reader: reader, logger: logging.NewComponentLogger(logger, "mediaserver")}
}

// Resolve performs exactly one main settings read. It does not retry; a
// transport failure is returned to the caller, which decides whether to stay
// on the current step.
func (r *Resolver) Resolve(ctx context.Context) (Type, error) {
	if r == nil || r.reader == nil {
		return TypeNotConfigured, errors.New("media server resolver has no settings reader")
	}
	logger := logging.WithContext(ctx, r.logger)

	kind, err := r.reader.MediaServerType(ctx)
	if err != nil {
		logger.Warn("media server type lookup failed", logging.Error(err))
		if errors.Is(err, services.ErrTransport) || errors.Is(err, services.ErrRejected) || errors.Is(err, services.ErrCircuitOpen) {
			return TypeNotConfigured, err
		}
		return TypeNotConfigured, services.Wrap(services.ErrTransport, "mediaserver", "resolve", "read main settings", err)
	}
	if !kind.Known() {
		logger.Warn("application reports no media server configured", slog.String("media_server_type", kind.String()))
		return TypeNotConfigured, nil
	}
	logger.Info("media server type resolved", slog.String("media_server_type", kind.String()))
	return kind, nil
}
