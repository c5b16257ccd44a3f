package http

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"krpc-telemetry/internal/telemetry/application/events"
	telemetry "krpc-telemetry/internal/telemetry/domain"
)

func TestSampleBroker_PublishesNamedValues(t *testing.T) {
	broker := NewSampleBroker()
	ch := broker.subscribe()
	defer broker.unsubscribe(ch)

	err := broker.HandleSampleAccepted(context.Background(), events.SampleAccepted{
		Strategy: "orbital_velocity",
		Met:      15,
		Values:   map[telemetry.Kind]float64{telemetry.KindOrbitalSpeed: 2295.7},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	select {
	case payload := <-ch:
		var decoded struct {
			Strategy string             `json:"strategy"`
			Met      int64              `json:"met"`
			Values   map[string]float64 `json:"values"`
		}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if decoded.Strategy != "orbital_velocity" || decoded.Met != 15 {
			t.Fatalf("unexpected payload %+v", decoded)
		}
		if decoded.Values["orbital_speed"] != 2295.7 {
			t.Fatalf("expected orbital_speed 2295.7, got %v", decoded.Values)
		}
	default:
		t.Fatal("expected a payload on the subscriber channel")
	}
}

func TestSampleBroker_BroadcastDuringUnsubscribeChurn(t *testing.T) {
	broker := NewSampleBroker()

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
					broker.broadcast([]byte("x"))
				}
			}
		}()
	}

	// Clients joining and leaving while broadcasts are in flight must not
	// panic with a send on a closed channel.
	for i := 0; i < 500; i++ {
		ch := broker.subscribe()
		broker.unsubscribe(ch)
	}
	close(done)
	wg.Wait()
}

func TestSampleBroker_IgnoresForeignEvents(t *testing.T) {
	broker := NewSampleBroker()
	ch := broker.subscribe()
	defer broker.unsubscribe(ch)

	if err := broker.HandleSampleAccepted(context.Background(), "not a sample"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(ch) != 0 {
		t.Fatal("expected no payload for a foreign event")
	}
}
