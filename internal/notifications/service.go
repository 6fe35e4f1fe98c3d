package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"alforqan/internal/config"
)

const userAgent = "Alforqan-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobQueued(ctx context.Context, title string) error
	NotifyRenderStarted(ctx context.Context, title string) error
	NotifyRenderCompleted(ctx context.Context, title string) error
	NotifyJobCompleted(ctx context.Context, title, finalFile string) error
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dedupWindow := time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		queueEnabled: cfg.Notifications.Queue,
		renderEnable: cfg.Notifications.Render,
		errorsEnable: cfg.Notifications.Errors,
		dedupWindow:  dedupWindow,
		recent:       make(map[string]time.Time),
		now:          time.Now,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	queueEnabled bool
	renderEnable bool
	errorsEnable bool

	dedupWindow time.Duration
	mu          sync.Mutex
	recent      map[string]time.Time
	now         func() time.Time
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, title string) error {
	if !n.queueEnabled {
		return nil
	}
	data := payload{
		title:   "Alforqan - Job Queued",
		message: fmt.Sprintf("Queued: %s", strings.TrimSpace(title)),
		tags:    []string{"alforqan", "queue", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRenderStarted(ctx context.Context, title string) error {
	if !n.renderEnable {
		return nil
	}
	data := payload{
		title:   "Alforqan - Render Started",
		message: fmt.Sprintf("Started rendering: %s", strings.TrimSpace(title)),
		tags:    []string{"alforqan", "render", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, title string) error {
	if !n.renderEnable {
		return nil
	}
	data := payload{
		title:   "Alforqan - Render Complete",
		message: fmt.Sprintf("Render complete: %s", strings.TrimSpace(title)),
		tags:    []string{"alforqan", "render", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, title, finalFile string) error {
	if !n.queueEnabled {
		return nil
	}
	message := fmt.Sprintf("Ready to share: %s", strings.TrimSpace(title))
	if finalFile = strings.TrimSpace(finalFile); finalFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, finalFile)
	}
	data := payload{
		title:    "Alforqan - Complete",
		message:  message,
		tags:     []string{"alforqan", "workflow", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	if !n.queueEnabled {
		return nil
	}
	data := payload{
		title:   "Alforqan - Queue Started",
		message: fmt.Sprintf("Started processing queue with %d jobs", count),
		tags:    []string{"alforqan", "queue", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.queueEnabled {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Alforqan - Queue Complete"
		message = fmt.Sprintf("Queue processing complete: %d jobs processed in %s", processed, durationText)
	} else {
		title = "Alforqan - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"alforqan", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorsEnable {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Alforqan - Error",
		message:  builder.String(),
		tags:     []string{"alforqan", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Alforqan - Test",
		message:  "Notification system test",
		tags:     []string{"alforqan", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// isDuplicate suppresses identical notifications inside the dedup window.
func (n *ntfyService) isDuplicate(data payload) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	key := data.title + "\x00" + data.message
	now := n.now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if sent, ok := n.recent[key]; ok && now.Sub(sent) < n.dedupWindow {
		return true
	}
	n.recent[key] = now
	for k, sent := range n.recent {
		if now.Sub(sent) >= n.dedupWindow {
			delete(n.recent, k)
		}
	}
	return false
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.isDuplicate(data) {
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

func (noopService) NotifyJobQueued(context.Context, string) error                       { return nil }
func (noopService) NotifyRenderStarted(context.Context, string) error                   { return nil }
func (noopService) NotifyRenderCompleted(context.Context, string) error                 { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, string) error            { return nil }
func (noopService) NotifyQueueStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
