package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fwea/internal/config"
)

const userAgent = "fwea/0.1.0"

// Event names a notification category.
type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventTest         Event = "test"
)

// Payload carries event fields. Keys are documented per event in format.go.
type Payload map[string]any

// Service publishes events. Implementations must be safe for concurrent use.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
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
		client:   &http.Client{Timeout: cfg.NotifyTimeout()},
		enabled: map[Event]bool{
			EventJobCompleted: cfg.Notifications.OnCompleted,
			EventJobFailed:    cfg.Notifications.OnFailed,
			EventTest:         true,
		},
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	if !n.enabled[event] {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
