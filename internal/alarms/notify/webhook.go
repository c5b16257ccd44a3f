package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	alarmapp "krpc-telemetry/internal/alarms/application"
)

// WebhookNotifier posts alarm events to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, logger *log.Logger) *WebhookNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Notify sends the alarm to the webhook. Delivery is best-effort: failures
// are logged and never propagated.
func (n *WebhookNotifier) Notify(ctx context.Context, event alarmapp.AlarmEvent) {
	if n == nil || n.url == "" {
		return
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatAlarm(event)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Printf("alarm webhook: marshal error: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Printf("alarm webhook: request error: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Printf("alarm webhook: post error: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Printf("alarm webhook: status %d", resp.StatusCode)
	}
}

func formatAlarm(event alarmapp.AlarmEvent) string {
	var b strings.Builder
	b.WriteString("[Telemetry Alarm]\n")
	fmt.Fprintf(&b, "Rule: %s (%s)\n", event.RuleName, event.Severity)
	fmt.Fprintf(&b, "Condition: %s %s %v\n", event.KindName, event.Operator, event.Threshold)
	fmt.Fprintf(&b, "Value: %v\n", event.Value)
	fmt.Fprintf(&b, "Met: %d\n", event.Met)
	fmt.Fprintf(&b, "Strategy: %s\n", event.Strategy)
	return b.String()
}
