package mediaserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"requestarr/internal/config"
	"requestarr/internal/services"
)

const (
	productName    = "requestarr"
	productVersion = "1.0.0"
	userAgent      = productName + "/" + productVersion
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Verifier confirms that the media server chosen for this application is
// reachable with the configured credentials. A successful Verify is what marks
// the media server step complete.
type Verifier interface {
	Verify(ctx context.Context) error
}

// NewVerifier returns the verifier matching kind. Emby speaks the Jellyfin API.
func NewVerifier(kind Type, cfg *config.Config, client HTTPDoer) (Verifier, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "mediaserver", "verify", "config is nil", nil)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	switch kind {
	case TypePlex:
		if cfg.Plex.URL == "" || cfg.Plex.Token == "" {
			return nil, services.Wrap(services.ErrConfiguration, "mediaserver", "verify", "plex.url and plex.token are required", nil)
		}
		clientID, err := LoadClientIdentifier(cfg.Paths.StateDir)
		if err != nil {
			return nil, err
		}
		return &plexVerifier{baseURL: cfg.Plex.URL, token: cfg.Plex.Token, clientID: clientID, client: client}, nil
	case TypeJellyfin, TypeEmby:
		if cfg.Jellyfin.URL == "" || cfg.Jellyfin.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "mediaserver", "verify", "jellyfin.url and jellyfin.api_key are required", nil)
		}
		return &jellyfinVerifier{baseURL: cfg.Jellyfin.URL, apiKey: cfg.Jellyfin.APIKey, client: client}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "mediaserver", "verify", fmt.Sprintf("no verifier for media server type %s", kind), nil)
	}
}

type plexVerifier struct {
	baseURL  string
	token    string
	clientID string
	client   HTTPDoer
}

func (v *plexVerifier) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(v.baseURL, "/")+"/library/sections", nil)
	if err != nil {
		return fmt.Errorf("build plex verify request: %w", err)
	}
	req.Header.Set("X-Plex-Token", v.token)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Plex-Client-Identifier", v.clientID)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	return doVerify(v.client, req, "plex")
}

type jellyfinVerifier struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

func (v *jellyfinVerifier) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(v.baseURL, "/")+"/System/Info", nil)
	if err != nil {
		return fmt.Errorf("build jellyfin verify request: %w", err)
	}
	req.Header.Set("X-Emby-Token", v.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return doVerify(v.client, req, "jellyfin")
}

func doVerify(client HTTPDoer, req *http.Request, name string) error {
	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "mediaserver", name, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrRejected, "mediaserver", name, "credentials rejected", nil)
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrTransport, "mediaserver", name,
			fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
