package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"requestarr/internal/config"
)

const userAgent = "requestarr/1.0.0"

// Service defines the notification surface used by the setup command.
type Service interface {
	NotifySetupCompleted(ctx context.Context, appTitle, url string) error
	NotifySetupFailed(ctx context.Context, err error, step string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NotificationTimeout()},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySetupCompleted(ctx context.Context, appTitle, url string) error {
	appTitle = strings.TrimSpace(appTitle)
	if appTitle == "" {
		appTitle = "Application"
	}
	message := fmt.Sprintf("%s setup complete", appTitle)
	if url = strings.TrimSpace(url); url != "" {
		message += "\n" + url
	}
	return n.send(ctx, payload{
		title:   "Requestarr - Setup Complete",
		message: message,
		tags:    []string{"requestarr", "setup", "completed"},
	})
}

func (n *ntfyService) NotifySetupFailed(ctx context.Context, err error, step string) error {
	var builder strings.Builder
	builder.WriteString("Setup failed")
	if step = strings.TrimSpace(step); step != "" {
		builder.WriteString(" during ")
		builder.WriteString(step)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Requestarr - Setup Failed",
		message:  builder.String(),
		tags:     []string{"requestarr", "setup", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Requestarr - Test",
		message:  "Notification system test",
		tags:     []string{"requestarr", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySetupCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifySetupFailed(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
