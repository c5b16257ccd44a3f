package krpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// Client is a minimal REST+SSE client for a game-simulation telemetry
// bridge. Streams are created and controlled over REST; the bridge pushes
// value updates for all live streams on a single server-sent event
// subscription, and the client keeps only the latest pushed value per
// stream. Reads never block waiting for a fresh push.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Logger

	mu     sync.RWMutex
	latest map[int64]telemetry.Value

	cancel context.CancelFunc
}

// NewClient constructs a bridge client.
func NewClient(baseURL, token string, logger *log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("krpc: empty base url")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		latest:  make(map[int64]telemetry.Value),
	}, nil
}

// Connect opens the push-update subscription. It returns once the
// subscription loop is running; the loop reconnects until ctx is cancelled
// or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	if c == nil {
		return errors.New("krpc: nil client")
	}
	if c.cancel != nil {
		return errors.New("krpc: already connected")
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.subscribeLoop(ctx)
	return nil
}

// Close stops the push-update subscription.
func (c *Client) Close() {
	if c == nil || c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
}

// AddStream registers a live value stream for an accessor path and returns
// its feed. The feed is idle until its rate is set and Start is called.
func (c *Client) AddStream(ctx context.Context, path string) (telemetry.Feed, error) {
	if path == "" {
		return nil, errors.New("krpc: empty accessor path")
	}
	var resp struct {
		ID int64 `json:"id"`
	}
	body := map[string]any{"path": path}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/streams", body, &resp); err != nil {
		return nil, err
	}
	return &feed{client: c, id: resp.ID}, nil
}

// ResolveFlight asks the bridge for the accessor prefix of a flight computed
// in the given reference frame ("body" for the orbited body, "vessel" for
// the vessel's own frame).
func (c *Client) ResolveFlight(ctx context.Context, frame string) (string, error) {
	if frame == "" {
		return "", errors.New("krpc: empty reference frame")
	}
	var resp struct {
		Path string `json:"path"`
	}
	body := map[string]any{"frame": frame}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/flights", body, &resp); err != nil {
		return "", err
	}
	if resp.Path == "" {
		return "", fmt.Errorf("krpc: bridge returned empty flight path for frame %q", frame)
	}
	return resp.Path, nil
}

// feed is the transport side of one live value stream.
type feed struct {
	client *Client
	id     int64
}

func (f *feed) SetRate(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("krpc: non-positive rate %v", hz)
	}
	body := map[string]any{"rate_hz": hz}
	return f.client.doJSON(context.Background(), http.MethodPatch, f.path(""), body, nil)
}

func (f *feed) Start() error {
	return f.client.doJSON(context.Background(), http.MethodPost, f.path("/start"), nil, nil)
}

func (f *feed) Value() (telemetry.Value, error) {
	return f.client.latestValue(f.id), nil
}

func (f *feed) Remove() error {
	f.client.forget(f.id)
	return f.client.doJSON(context.Background(), http.MethodDelete, f.path(""), nil, nil)
}

func (f *feed) path(suffix string) string {
	return fmt.Sprintf("/api/v1/streams/%d%s", f.id, suffix)
}

// latestValue returns the most recent pushed value for a stream, or the
// transport default (zero value) when no push has arrived yet.
func (c *Client) latestValue(id int64) telemetry.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest[id]
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.latest, id)
	c.mu.Unlock()
}

type streamEvent struct {
	ID    int64     `json:"id"`
	Value wireValue `json:"value"`
}

type wireValue struct {
	Numeric *float64    `json:"numeric,omitempty"`
	Vector  *[3]float64 `json:"vector,omitempty"`
}

func (v wireValue) toDomain() (telemetry.Value, bool) {
	switch {
	case v.Numeric != nil:
		return telemetry.NumericValue(*v.Numeric), true
	case v.Vector != nil:
		return telemetry.VectorValue(telemetry.Vector3{X: v.Vector[0], Y: v.Vector[1], Z: v.Vector[2]}), true
	default:
		return telemetry.Value{}, false
	}
}

func (c *Client) subscribeLoop(ctx context.Context) {
	for {
		if err := c.subscribeOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Printf("krpc: stream subscription error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (c *Client) subscribeOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/streams/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// The subscription must outlive the REST timeout.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("krpc: subscription status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			c.logger.Printf("krpc: bad stream event: %v", err)
			continue
		}
		value, ok := event.Value.toDomain()
		if !ok {
			continue
		}
		c.mu.Lock()
		c.latest[event.ID] = value
		c.mu.Unlock()
	}
	return scanner.Err()
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("krpc: %s %s status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
