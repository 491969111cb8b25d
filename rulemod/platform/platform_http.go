package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/haven-social/warden/internal/util"
)

// HTTP client for the platform's internal moderation API.
type HTTPClient struct {
	Host       string
	AdminToken string
	Client     *http.Client
}

func NewHTTPClient(host, adminToken string) *HTTPClient {
	return &HTTPClient{
		Host:       host,
		AdminToken: adminToken,
		Client:     util.RobustHTTPClient(),
	}
}

func (c *HTTPClient) post(ctx context.Context, op, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AdminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminToken)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("platform %s request: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	return nil
}

func (c *HTTPClient) BlockContent(ctx context.Context, contentID, reason string) error {
	return c.post(ctx, "block", fmt.Sprintf("/internal/content/%s/block", contentID), map[string]string{
		"reason": reason,
	})
}

func (c *HTTPClient) QueueForReview(ctx context.Context, contentID, severity, reason string) error {
	return c.post(ctx, "review", "/internal/review-queue", map[string]string{
		"contentId": contentID,
		"severity":  severity,
		"reason":    reason,
	})
}

func (c *HTTPClient) WarnUser(ctx context.Context, userID, reason string) error {
	return c.post(ctx, "warn", fmt.Sprintf("/internal/users/%s/warnings", userID), map[string]string{
		"reason": reason,
	})
}

func (c *HTTPClient) RestrictUser(ctx context.Context, userID string, duration time.Duration, reason string) error {
	return c.post(ctx, "restrict", fmt.Sprintf("/internal/users/%s/restrictions", userID), map[string]any{
		"durationHours": int(duration.Hours()),
		"reason":        reason,
	})
}

func (c *HTTPClient) AssignCase(ctx context.Context, contentID, assignee, reason string) error {
	return c.post(ctx, "assign", "/internal/review-queue/assignments", map[string]string{
		"contentId": contentID,
		"assignee":  assignee,
		"reason":    reason,
	})
}

func (c *HTTPClient) EscalateCase(ctx context.Context, contentID string, level int, reason string) error {
	return c.post(ctx, "escalate", "/internal/review-queue/escalations", map[string]any{
		"contentId": contentID,
		"level":     level,
		"reason":    reason,
	})
}
