package appclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"requestarr/internal/config"
	"requestarr/internal/logging"
	"requestarr/internal/mediaserver"
	"requestarr/internal/services"
	"requestarr/internal/settings"
)

const (
	pathInitialize     = "/api/v1/settings/initialize"
	pathMainSettings   = "/api/v1/settings/main"
	pathPublicSettings = "/api/v1/settings/public"
	pathCurrentUser    = "/api/v1/auth/me"

	userAgent       = "requestarr/1.0.0"
	maxErrorBody    = 2048
	maxResponseBody = 1 << 20
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// InitializeResponse is the application's answer to the initialize request.
type InitializeResponse struct {
	Initialized bool `json:"initialized"`
}

// MainSettings is the subset of the main settings document this module reads.
type MainSettings struct {
	MediaServerType  mediaserver.Type `json:"mediaServerType"`
	ApplicationTitle string           `json:"applicationTitle"`
	Locale           string           `json:"locale"`
}

// MainSettingsUpdate is the partial main settings document written on finalize.
type MainSettingsUpdate struct {
	Locale string `json:"locale"`
}

// User is the signed-in account returned by the sign-in probe.
type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Options configures a Client.
type Options struct {
	BaseURL            string
	APIKey             string
	HTTPClient         HTTPDoer
	Logger             *slog.Logger
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Client talks to the media-request application's settings API. Every call
// runs through a circuit breaker so a dead application fails fast after a few
// consecutive transport failures.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "appclient", "new", "base url is required", nil)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := logging.NewComponentLogger(opts.Logger, "appclient")

	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(opts.APIKey),
		http:    httpClient,
		logger:  logger,
		breaker: newBreaker(baseURL, opts.BreakerMaxFailures, opts.BreakerTimeout, logger),
	}, nil
}

// NewFromConfig builds a Client from the [app] and [client] sections.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "appclient", "new", "config is nil", nil)
	}
	return New(Options{
		BaseURL:            cfg.App.URL,
		APIKey:             cfg.App.APIKey,
		HTTPClient:         &http.Client{Timeout: cfg.RequestTimeout()},
		Logger:             logger,
		BreakerMaxFailures: uint32(cfg.Client.BreakerMaxFailures),
		BreakerTimeout:     cfg.BreakerTimeout(),
	})
}

// Initialize asks the application to mark itself initialized.
func (c *Client) Initialize(ctx context.Context) (InitializeResponse, error) {
	var out InitializeResponse
	err := c.do(ctx, http.MethodPost, pathInitialize, nil, &out)
	return out, err
}

// SaveMainSettings persists a partial main settings update.
func (c *Client) SaveMainSettings(ctx context.Context, update MainSettingsUpdate) error {
	return c.do(ctx, http.MethodPost, pathMainSettings, update, nil)
}

// MainSettings reads the main settings document.
func (c *Client) MainSettings(ctx context.Context) (MainSettings, error) {
	var out MainSettings
	err := c.do(ctx, http.MethodGet, pathMainSettings, nil, &out)
	return out, err
}

// MediaServerType reads the main settings and returns the configured backend.
func (c *Client) MediaServerType(ctx context.Context) (mediaserver.Type, error) {
	main, err := c.MainSettings(ctx)
	if err != nil {
		return mediaserver.TypeNotConfigured, err
	}
	return main.MediaServerType, nil
}

// PublicSettings reads the public settings snapshot. Fields missing from the
// response stay at their zero value; nothing is merged from defaults.
func (c *Client) PublicSettings(ctx context.Context) (settings.PublicSettings, error) {
	var out settings.PublicSettings
	err := c.do(ctx, http.MethodGet, pathPublicSettings, nil, &out)
	return out, err
}

// CurrentUser returns the signed-in account.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, pathCurrentUser, nil, &out)
	return out, err
}

// BreakerState reports the circuit breaker state for status output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "appclient", op, "encode request", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "appclient", op, "build request", err)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	logger := logging.WithContext(ctx, c.logger).With(slog.String(logging.FieldCorrelationID, requestID))
	started := time.Now()

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(detail))}
		}
		return resp, nil
	})
	if err != nil {
		logger.Warn("application request failed",
			slog.String("operation", op),
			slog.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return services.Wrap(services.ErrCircuitOpen, "appclient", op, "application unavailable", err)
		}
		return services.Wrap(services.ErrTransport, "appclient", op, "request failed", err)
	}
	defer resp.Body.Close()

	logger.Debug("application request completed",
		slog.String("operation", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return services.Wrap(services.ErrRejected, "appclient", op,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return services.Wrap(services.ErrTransport, "appclient", op, "decode response", err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("server returned %d", e.code)
	}
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

// StatusCode extracts the HTTP status from a server-side failure, if any.
func StatusCode(err error) (int, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se.code, true
	}
	return 0, false
}
