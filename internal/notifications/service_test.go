package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"requestarr/internal/config"
	"requestarr/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	captured := make(chan capturedRequest, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySetupCompleted(context.Background(), "Overseerr", "http://localhost"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, captured := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/requestarr"
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	tests := []struct {
		name           string
		send           func() error
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:        "completed",
			send:        func() error { return svc.NotifySetupCompleted(ctx, "Overseerr", "http://requests.local/") },
			expectTitle: "Requestarr - Setup Complete",
			expectBody:  "Overseerr setup complete\nhttp://requests.local/",
			expectTags:  "requestarr,setup,completed",
		},
		{
			name:           "failed",
			send:           func() error { return svc.NotifySetupFailed(ctx, errors.New("connection refused"), "services") },
			expectTitle:    "Requestarr - Setup Failed",
			expectBody:     "Setup failed during services: connection refused",
			expectTags:     "requestarr,setup,error",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func() error { return svc.TestNotification(ctx) },
			expectTitle:    "Requestarr - Test",
			expectBody:     "Notification system test",
			expectTags:     "requestarr,test",
			expectPriority: "low",
		},
	}
	for _, tc := range tests {
		if err := tc.send(); err != nil {
			t.Fatalf("%s: send failed: %v", tc.name, err)
		}
		got := <-captured
		if got.title != tc.expectTitle || got.body != tc.expectBody || got.tags != tc.expectTags || got.priority != tc.expectPriority {
			t.Fatalf("%s: unexpected request %+v", tc.name, got)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/requestarr"
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403")
	}
}
