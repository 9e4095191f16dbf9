package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"epubshrink/internal/config"
)

const userAgent = "epubshrink/0.1.0"

// Event identifies a notification-worthy occurrence during a rewrite.
type Event string

const (
	EventUnsupportedImage Event = "unsupported_image"
	EventMalformedEntry   Event = "malformed_entry"
	EventDecodeFailed     Event = "decode_failed"
	EventRewriteCompleted Event = "rewrite_completed"
	EventRewriteFailed    Event = "rewrite_failed"
	EventTest             Event = "test"
)

// Payload carries event details keyed by field name.
type Payload map[string]any

// Service publishes events to the configured transport.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		unsupported: cfg.Notifications.Unsupported,
		completion:  cfg.Notifications.Completion,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	unsupported bool
	completion  bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, p Payload) error {
	data, ok := n.format(event, p)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) format(event Event, p Payload) (payload, bool) {
	entry := p.str("entry")
	switch event {
	case EventUnsupportedImage:
		if !n.unsupported {
			return payload{}, false
		}
		return payload{
			title:   "epubshrink - Unsupported Image",
			message: fmt.Sprintf("Kept unchanged: %s (%s)", entry, fallback(p.str("extension"), "unknown")),
			tags:    []string{"epubshrink", "image", "unsupported"},
		}, true
	case EventMalformedEntry:
		if !n.unsupported {
			return payload{}, false
		}
		return payload{
			title:   "epubshrink - Malformed Entry",
			message: fmt.Sprintf("Kept unchanged: %s", entry),
			tags:    []string{"epubshrink", "entry", "malformed"},
		}, true
	case EventDecodeFailed:
		if !n.unsupported {
			return payload{}, false
		}
		message := fmt.Sprintf("Could not decode: %s", entry)
		if reason := p.str("error"); reason != "" {
			message = fmt.Sprintf("%s\n%s", message, reason)
		}
		return payload{
			title:   "epubshrink - Decode Failed",
			message: message,
			tags:    []string{"epubshrink", "image", "decode"},
		}, true
	case EventRewriteCompleted:
		if !n.completion {
			return payload{}, false
		}
		message := fmt.Sprintf("✅ %s", fallback(p.str("destination"), "archive"))
		if summary := p.str("summary"); summary != "" {
			message = fmt.Sprintf("%s\n%s", message, summary)
		}
		return payload{
			title:   "epubshrink - Complete",
			message: message,
			tags:    []string{"epubshrink", "rewrite", "completed"},
		}, true
	case EventRewriteFailed:
		return payload{
			title:    "epubshrink - Error",
			message:  fmt.Sprintf("❌ %s: %s", fallback(p.str("source"), "archive"), fallback(p.str("error"), "unknown")),
			tags:     []string{"epubshrink", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "epubshrink - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"epubshrink", "test"},
			priority: "low",
		}, true
	}
	return payload{}, false
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
