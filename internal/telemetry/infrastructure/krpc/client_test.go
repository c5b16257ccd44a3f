package krpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type bridgeServer struct {
	mu       sync.Mutex
	requests []string
	events   chan string
}

func newBridgeServer() *bridgeServer {
	return &bridgeServer{events: make(chan string, 8)}
}

func (s *bridgeServer) record(r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()
}

func (s *bridgeServer) seen(entry string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req == entry {
			return true
		}
	}
	return false
}

func (s *bridgeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/streams", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7})
	})
	mux.HandleFunc("/api/v1/streams/", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v1/flights", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		var req struct {
			Frame string `json:"frame"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"path": "flights/" + req.Frame})
	})
	mux.HandleFunc("/api/v1/streams/events", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case payload := <-s.events:
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
	})
	return mux
}

func TestClient_StreamLifecycle(t *testing.T) {
	bridge := newBridgeServer()
	server := httptest.NewServer(bridge.handler())
	defer server.Close()

	client, err := NewClient(server.URL, "", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	feed, err := client.AddStream(context.Background(), "vessel.met")
	if err != nil {
		t.Fatalf("add stream: %v", err)
	}
	if !bridge.seen("POST /api/v1/streams") {
		t.Fatal("expected stream creation request")
	}

	if err := feed.SetRate(2.0); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	if !bridge.seen("PATCH /api/v1/streams/7") {
		t.Fatal("expected rate request")
	}

	if err := feed.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !bridge.seen("POST /api/v1/streams/7/start") {
		t.Fatal("expected start request")
	}

	value, err := feed.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if _, ok := value.Float(); ok {
		t.Fatal("expected no scalar before the first push")
	}

	if err := feed.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !bridge.seen("DELETE /api/v1/streams/7") {
		t.Fatal("expected delete request")
	}
}

func TestClient_ResolveFlight(t *testing.T) {
	bridge := newBridgeServer()
	server := httptest.NewServer(bridge.handler())
	defer server.Close()

	client, err := NewClient(server.URL, "", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	path, err := client.ResolveFlight(context.Background(), "body")
	if err != nil {
		t.Fatalf("resolve flight: %v", err)
	}
	if path != "flights/body" {
		t.Fatalf("expected flights/body, got %s", path)
	}
}

func TestClient_PushUpdatesLatestValue(t *testing.T) {
	bridge := newBridgeServer()
	server := httptest.NewServer(bridge.handler())
	defer server.Close()

	client, err := NewClient(server.URL, "", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	feed, err := client.AddStream(ctx, "vessel.met")
	if err != nil {
		t.Fatalf("add stream: %v", err)
	}

	bridge.events <- `{"id":7,"value":{"numeric":42.5}}`

	deadline := time.Now().Add(2 * time.Second)
	for {
		value, err := feed.Value()
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if f, ok := value.Float(); ok {
			if f != 42.5 {
				t.Fatalf("expected 42.5, got %v", f)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("push never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bridge.events <- `{"id":7,"value":{"vector":[1,2,2]}}`
	for {
		value, _ := feed.Value()
		if vec, ok := value.Vec(); ok {
			if vec.Magnitude() != 3 {
				t.Fatalf("expected magnitude 3, got %v", vec.Magnitude())
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("vector push never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
