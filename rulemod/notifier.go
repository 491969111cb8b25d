package rulemod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Delivery channel for notify actions (and nothing else — enforcement goes
// through the platform client).
type Notifier interface {
	SendNotification(ctx context.Context, msg string) error
}

type slackWebhookBody struct {
	Text string `json:"text"`
}

// Sends moderator notifications to a channel via slack "incoming webhook".
// The webhook must already be configured in the slack workspace.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
}

func (n *SlackNotifier) SendNotification(ctx context.Context, msg string) error {
	body, err := json.Marshal(slackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

// Collects notifications in memory; used in tests and when no webhook is
// configured.
type MemNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func NewMemNotifier() *MemNotifier {
	return &MemNotifier{}
}

func (n *MemNotifier) SendNotification(ctx context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *MemNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	copy(out, n.msgs)
	return out
}

func notificationBody(evt *ModerationEvent, pa *PlannedAction, reasons []string) string {
	msg := fmt.Sprintf("⚠️ Moderation Alert: rule `%s`\n", pa.RuleName)
	msg += fmt.Sprintf("content `%s` (%s) by user `%s`\n", evt.ContentID, evt.ContentType, evt.UserID)
	if pa.Action.Parameters.Reason != "" {
		msg += fmt.Sprintf("reason: %s\n", pa.Action.Parameters.Reason)
	}
	if len(reasons) > 0 {
		msg += "matched: " + strings.Join(reasons, "; ") + "\n"
	}
	return msg
}
