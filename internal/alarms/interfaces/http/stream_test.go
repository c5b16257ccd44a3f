package http

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	alarmapp "krpc-telemetry/internal/alarms/application"
)

func TestSSEBroker_NotifyReachesSubscribers(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	broker.Notify(context.Background(), alarmapp.AlarmEvent{
		RuleID:   "high-g",
		KindName: "g_force",
		Met:      42,
		Value:    6.8,
		Severity: "critical",
	})

	select {
	case payload := <-ch:
		var decoded map[string]any
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if decoded["rule_id"] != "high-g" {
			t.Fatalf("expected rule_id high-g, got %v", decoded["rule_id"])
		}
		if decoded["kind"] != "g_force" {
			t.Fatalf("expected kind g_force, got %v", decoded["kind"])
		}
	default:
		t.Fatal("expected a payload on the subscriber channel")
	}
}

func TestSSEBroker_SlowClientIsSkipped(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	// Fill the client buffer, then keep broadcasting; nothing may block.
	for i := 0; i < 40; i++ {
		broker.Broadcast([]byte("x"))
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected full buffer of %d, got %d", cap(ch), len(ch))
	}
}

func TestSSEBroker_BroadcastDuringUnsubscribeChurn(t *testing.T) {
	broker := NewSSEBroker()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					broker.Broadcast([]byte("x"))
				}
			}
		}()
	}

	// Clients joining and leaving while broadcasts are in flight must not
	// panic with a send on a closed channel.
	for i := 0; i < 500; i++ {
		ch := broker.Subscribe()
		broker.Unsubscribe(ch)
	}
	close(done)
	wg.Wait()
}

func TestSSEBroker_UnsubscribeClosesChannel(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	broker.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Fatal("expected channel closed after unsubscribe")
	}
	// A broadcast after unsubscribe must not panic.
	broker.Broadcast([]byte("x"))
}
