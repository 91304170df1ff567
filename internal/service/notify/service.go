package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"farmguardian/internal/config"
	"farmguardian/internal/model"
)

const userAgent = "FarmGuardian/1.0"

// Service sends push notifications about farm events.
type Service interface {
	NotifyDetection(ctx context.Context, d model.Detection) error
	NotifyCameraUnavailable(ctx context.Context, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed notifier when a topic is configured, a noop otherwise.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.NtfyTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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

func (n *ntfyService) NotifyDetection(ctx context.Context, d model.Detection) error {
	animal := strings.TrimSpace(d.AnimalType)
	if animal == "" {
		animal = "Animal"
	}
	data := payload{
		title:    "Farm Alert!",
		message:  fmt.Sprintf("%s detected on your property", animal),
		tags:     []string{"warning", "farm", strings.ToLower(animal)},
		priority: "high",
	}
	if d.CameraID != "" {
		data.message = fmt.Sprintf("%s\nCamera: %s (%.0f%%)", data.message, d.CameraID, d.Confidence*100)
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCameraUnavailable(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:   "Farm Guardian - Camera Unavailable",
		message: fmt.Sprintf("Camera could not be opened: %s", reason),
		tags:    []string{"camera", "error"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Farm Guardian - Test",
		message:  "Notification system test",
		tags:     []string{"farm", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyDetection(context.Context, model.Detection) error { return nil }
func (noopService) NotifyCameraUnavailable(context.Context, string) error  { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }

// Enabled reports whether s actually delivers notifications.
func Enabled(s Service) bool {
	if s == nil {
		return false
	}
	_, noop := s.(noopService)
	return !noop
}
