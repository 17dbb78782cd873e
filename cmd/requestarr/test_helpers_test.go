package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"requestarr/internal/config"
	"requestarr/internal/testsupport"
)

const testAPIKey = "test-key"

// fakeApp emulates the settings endpoints of the media-request application.
type fakeApp struct {
	mu sync.Mutex

	initializeResult bool
	alreadyInit      bool
	serverType       int
	publicFails      bool
	locale           string
	calls            []string
}

func (a *fakeApp) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		a.record("me")
		writeTestJSON(w, map[string]any{"id": 1, "email": "admin@example.com", "displayName": "Admin"})
	})
	mux.HandleFunc("GET /api/v1/settings/main", func(w http.ResponseWriter, r *http.Request) {
		a.record("main:get")
		a.mu.Lock()
		defer a.mu.Unlock()
		writeTestJSON(w, map[string]any{"mediaServerType": a.serverType, "applicationTitle": "Overseerr", "locale": a.locale})
	})
	mux.HandleFunc("POST /api/v1/settings/main", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Locale string `json:"locale"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.record("main:post:" + body.Locale)
		a.mu.Lock()
		a.locale = body.Locale
		a.mu.Unlock()
		writeTestJSON(w, map[string]any{"locale": body.Locale})
	})
	mux.HandleFunc("POST /api/v1/settings/initialize", func(w http.ResponseWriter, r *http.Request) {
		a.record("initialize")
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.initializeResult {
			a.alreadyInit = true
		}
		writeTestJSON(w, map[string]any{"initialized": a.initializeResult})
	})
	mux.HandleFunc("GET /api/v1/settings/public", func(w http.ResponseWriter, r *http.Request) {
		a.record("public")
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.publicFails {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeTestJSON(w, map[string]any{
			"initialized":      a.alreadyInit,
			"applicationTitle": "Overseerr",
			"mediaServerType":  a.serverType,
			"locale":           a.locale,
			"localLogin":       true,
		})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != testAPIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (a *fakeApp) record(call string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)
}

func (a *fakeApp) callLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cliTestEnv struct {
	cfg        *config.Config
	app        *fakeApp
	server     *httptest.Server
	configPath string
}

func setupCLITestEnv(t *testing.T, app *fakeApp, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("REQUESTARR_URL", "")
	t.Setenv("REQUESTARR_API_KEY", "")

	server := httptest.NewServer(app.handler())
	t.Cleanup(server.Close)

	opts = append([]testsupport.ConfigOption{testsupport.WithAppURL(server.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.App.APIKey = testAPIKey

	configPath := filepath.Join(t.TempDir(), "requestarr.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, app: app, server: server, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
