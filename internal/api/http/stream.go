package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"krpc-telemetry/internal/telemetry/application/events"
)

// SampleBroker fans accepted samples out to connected clients as
// server-sent events. It subscribes to the event bus through
// HandleSampleAccepted.
type SampleBroker struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewSampleBroker constructs a broker.
func NewSampleBroker() *SampleBroker {
	return &SampleBroker{clients: make(map[chan []byte]struct{})}
}

// HandleSampleAccepted is an event bus handler for accepted samples.
func (b *SampleBroker) HandleSampleAccepted(_ context.Context, event any) error {
	if b == nil {
		return nil
	}
	accepted, ok := event.(events.SampleAccepted)
	if !ok {
		return nil
	}
	values := make(map[string]float64, len(accepted.Values))
	for kind, value := range accepted.Values {
		values[kind.String()] = value
	}
	payload, err := json.Marshal(struct {
		Strategy string             `json:"strategy"`
		Met      int64              `json:"met"`
		Values   map[string]float64 `json:"values"`
	}{Strategy: accepted.Strategy, Met: accepted.Met, Values: values})
	if err != nil {
		return nil
	}
	b.broadcast(payload)
	return nil
}

// broadcast delivers a payload to every connected client. Slow clients are
// skipped rather than blocked on. The sends happen under the mutex so a
// client unsubscribing concurrently cannot close a channel mid-send.
func (b *SampleBroker) broadcast(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (b *SampleBroker) subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *SampleBroker) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.clients, ch)
	close(ch)
	b.mu.Unlock()
}

// ServeHTTP streams accepted samples to the client until it disconnects.
func (b *SampleBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
