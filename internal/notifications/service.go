package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
)

const userAgent = "scribe"

// Service publishes run lifecycle events. Implementations must be safe to
// call with a canceled context argument replaced by context.WithoutCancel:
// completion messages still go out while the process shuts down.
type Service interface {
	RunStarted(ctx context.Context, inputPath string, jobCount int) error
	RunCompleted(ctx context.Context, runID string, succeeded, failed int, duration time.Duration) error
	RunInterrupted(ctx context.Context, runID string, completed, remaining int) error
	Test(ctx context.Context) error
}

// NewService returns a Service for the configured topic, or a no-op
// implementation when notifications are disabled.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client: &http.Client{
			Timeout: time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second,
		},
	}
}

type noopService struct{}

func (noopService) RunStarted(context.Context, string, int) error { return nil }

func (noopService) RunCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}

func (noopService) RunInterrupted(context.Context, string, int, int) error { return nil }

func (noopService) Test(context.Context) error { return nil }

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (s *ntfyService) RunStarted(ctx context.Context, inputPath string, jobCount int) error {
	noun := "files"
	if jobCount == 1 {
		noun = "file"
	}
	message := fmt.Sprintf("Transcribing %d %s from %s", jobCount, noun, inputPath)
	return s.send(ctx, message, "Scribe - Run Started", "", "hourglass_flowing_sand")
}

func (s *ntfyService) RunCompleted(ctx context.Context, runID string, succeeded, failed int, duration time.Duration) error {
	rounded := duration.Round(time.Second)
	if failed > 0 {
		message := fmt.Sprintf("Run %s: %d succeeded, %d failed in %s", runID, succeeded, failed, rounded)
		return s.send(ctx, message, "Scribe - Run Finished With Errors", "high", "warning")
	}
	noun := "files"
	if succeeded == 1 {
		noun = "file"
	}
	message := fmt.Sprintf("Run %s: transcribed %d %s in %s", runID, succeeded, noun, rounded)
	return s.send(ctx, message, "Scribe - Run Complete", "", "white_check_mark")
}

func (s *ntfyService) RunInterrupted(ctx context.Context, runID string, completed, remaining int) error {
	message := fmt.Sprintf("Run %s stopped early: %d done, %d remaining", runID, completed, remaining)
	return s.send(ctx, message, "Scribe - Run Interrupted", "high", "warning")
}

func (s *ntfyService) Test(ctx context.Context) error {
	return s.send(ctx, "Test notification from scribe", "Scribe - Test", "", "wave")
}

func (s *ntfyService) send(ctx context.Context, message, title, priority, tags string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if tags != "" {
		req.Header.Set("Tags", tags)
	}
	if priority != "" && priority != "default" {
		req.Header.Set("Priority", priority)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("notification rejected: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}
