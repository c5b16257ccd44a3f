package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	alarmapp "krpc-telemetry/internal/alarms/application"
	alarms "krpc-telemetry/internal/alarms/domain"
)

func highGEvent() alarmapp.AlarmEvent {
	return alarmapp.AlarmEvent{
		RuleID:    "high-g",
		RuleName:  "High g-force",
		KindName:  "g_force",
		Strategy:  "flight_loads",
		Met:       42,
		Value:     6.8,
		Threshold: 6,
		Operator:  alarms.OperatorGreater,
		Severity:  "critical",
	}
}

func TestWebhookNotifier_PostsPayload(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, log.New(io.Discard, "", 0))
	notifier.Notify(context.Background(), highGEvent())

	if received.MsgType != "text" {
		t.Fatalf("expected msgtype text, got %s", received.MsgType)
	}
	if !strings.Contains(received.Text.Content, "High g-force") {
		t.Fatalf("expected rule name in content, got %q", received.Text.Content)
	}
	if !strings.Contains(received.Text.Content, "g_force > 6") {
		t.Fatalf("expected condition in content, got %q", received.Text.Content)
	}
}

func TestWebhookNotifier_EmptyURLIsNoOp(t *testing.T) {
	notifier := NewWebhookNotifier("", log.New(io.Discard, "", 0))
	notifier.Notify(context.Background(), highGEvent())
}

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) Notify(context.Context, alarmapp.AlarmEvent) {
	n.calls++
}

func TestMultiNotifier_FansOutAndSkipsNil(t *testing.T) {
	first := &countingNotifier{}
	second := &countingNotifier{}
	multi := NewMultiNotifier(first, nil, second)
	multi.Notify(context.Background(), highGEvent())

	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected both notifiers called once, got %d and %d", first.calls, second.calls)
	}
}
