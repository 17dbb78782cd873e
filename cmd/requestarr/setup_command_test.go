package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"requestarr/internal/mediaserver"
	"requestarr/internal/testsupport"
)

func newPlexServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/sections" || r.Header.Get("X-Plex-Token") != "plex-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSetupRunsWizardToCompletion(t *testing.T) {
	plex := newPlexServer(t, http.StatusOK)
	app := &fakeApp{initializeResult: true, serverType: int(mediaserver.TypePlex), locale: "en"}
	env := setupCLITestEnv(t, app, testsupport.WithPlex(plex.URL, "plex-token"), testsupport.WithLocale("pt_br"))

	out, _, err := runCLI(t, []string{"setup"}, env.configPath)
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, out)
	}
	requireContains(t, out, "signed in as Admin")
	requireContains(t, out, "PLEX reachable")
	requireContains(t, out, "Setup complete. Open "+env.server.URL+"/")
	requireContains(t, out, "locale pt-BR")

	calls := app.callLog()
	want := []string{"public", "me", "main:get", "initialize", "main:post:pt-BR"}
	if len(calls) < len(want) || !reflect.DeepEqual(calls[:len(want)], want) {
		t.Fatalf("unexpected call order %v", calls)
	}

	status, _, err := runCLI(t, []string{"setup", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("setup status: %v", err)
	}
	requireContains(t, status, "PLEX")
	requireContains(t, status, "Finalized")
	requireContains(t, status, "Configure Services")
}

func TestSetupNotInitializedReturnsError(t *testing.T) {
	app := &fakeApp{initializeResult: false, serverType: int(mediaserver.TypeJellyfin)}
	env := setupCLITestEnv(t, app)

	out, _, err := runCLI(t, []string{"setup", "--skip-verify"}, env.configPath)
	if !errors.Is(err, errNotCommitted) {
		t.Fatalf("expected errNotCommitted, got %v\n%s", err, out)
	}
	for _, call := range app.callLog() {
		if call == "main:post:en" {
			t.Fatal("locale must not be persisted when initialize is declined")
		}
	}

	status, _, err := runCLI(t, []string{"setup", "status", "--events"}, env.configPath)
	if err != nil {
		t.Fatalf("setup status: %v", err)
	}
	requireContains(t, status, "JELLYFIN")
	requireContains(t, status, "finalize")
}

func TestSetupSkipsInitializedApplication(t *testing.T) {
	app := &fakeApp{alreadyInit: true, serverType: int(mediaserver.TypePlex)}
	env := setupCLITestEnv(t, app)

	out, _, err := runCLI(t, []string{"setup"}, env.configPath)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	requireContains(t, out, "already initialized")
	if calls := app.callLog(); !reflect.DeepEqual(calls, []string{"public"}) {
		t.Fatalf("expected only the public settings read, got %v", calls)
	}
}

func TestSetupStopsWhenMediaServerUnreachable(t *testing.T) {
	plex := newPlexServer(t, http.StatusServiceUnavailable)
	app := &fakeApp{initializeResult: true, serverType: int(mediaserver.TypePlex)}
	env := setupCLITestEnv(t, app, testsupport.WithPlex(plex.URL, "plex-token"))

	out, _, err := runCLI(t, []string{"setup"}, env.configPath)
	if err == nil {
		t.Fatalf("expected error, got output:\n%s", out)
	}
	for _, call := range app.callLog() {
		if call == "initialize" {
			t.Fatal("initialize must not be called before the media server step completes")
		}
	}
}

func TestSetupRejectedAPIKey(t *testing.T) {
	app := &fakeApp{serverType: int(mediaserver.TypePlex)}
	env := setupCLITestEnv(t, app)
	env.cfg.App.APIKey = "wrong"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"setup"}, env.configPath)
	if err == nil {
		t.Fatal("expected sign in error")
	}
	requireContains(t, out, "api key rejected")
}

func TestSetupStatusWithoutRuns(t *testing.T) {
	env := setupCLITestEnv(t, &fakeApp{})
	out, _, err := runCLI(t, []string{"setup", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("setup status: %v", err)
	}
	requireContains(t, out, "No setup runs recorded")
}

func TestSetupResetClearsJournal(t *testing.T) {
	app := &fakeApp{initializeResult: true, serverType: int(mediaserver.TypeEmby)}
	env := setupCLITestEnv(t, app)
	if _, _, err := runCLI(t, []string{"setup", "--skip-verify"}, env.configPath); err != nil {
		t.Fatalf("setup: %v", err)
	}
	out, _, err := runCLI(t, []string{"setup", "reset"}, env.configPath)
	if err != nil {
		t.Fatalf("setup reset: %v", err)
	}
	requireContains(t, out, "Removed 1 setup run(s)")
}

func TestSetupCheckReportsResults(t *testing.T) {
	plex := newPlexServer(t, http.StatusOK)
	app := &fakeApp{serverType: int(mediaserver.TypePlex)}
	env := setupCLITestEnv(t, app, testsupport.WithPlex(plex.URL, "plex-token"))

	out, _, err := runCLI(t, []string{"setup", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("setup check: %v\n%s", err, out)
	}
	requireContains(t, out, "State directory")
	requireContains(t, out, "signed in as admin@example.com")
	requireContains(t, out, "Plex")
}

func TestSetupCheckFailsWithoutMediaServerCredentials(t *testing.T) {
	app := &fakeApp{serverType: int(mediaserver.TypeJellyfin)}
	env := setupCLITestEnv(t, app)

	out, _, err := runCLI(t, []string{"setup", "check"}, env.configPath)
	if !errors.Is(err, errPreflightFailed) {
		t.Fatalf("expected errPreflightFailed, got %v\n%s", err, out)
	}
	requireContains(t, out, "Jellyfin")
}
