package telemetry

import (
	"context"
	"time"
)

// DefaultSettle is how long StartAll waits after enabling push updates so the
// first pushes can arrive before any snapshot is taken. Without it the very
// first snapshot tends to carry transport-default values.
const DefaultSettle = 2 * time.Second

// Snapshot is one synchronous read of every registered stream, keyed by kind.
// It represents the observed world state at approximately one instant.
type Snapshot map[Kind]Value

// Registry holds at most one stream per telemetry kind and controls their
// shared lifecycle. It is built once per session and is not reusable after
// DestroyAll.
type Registry struct {
	streams map[Kind]*Stream
	settle  time.Duration
}

// RegistryOption configures a registry.
type RegistryOption func(*Registry)

// WithSettle overrides the post-start settling pause.
func WithSettle(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d >= 0 {
			r.settle = d
		}
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		streams: make(map[Kind]*Stream),
		settle:  DefaultSettle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a stream. The first registration for a kind wins; duplicates
// are dropped silently.
func (r *Registry) Register(s *Stream) {
	if r == nil || s == nil {
		return
	}
	if _, ok := r.streams[s.Kind()]; ok {
		return
	}
	r.streams[s.Kind()] = s
}

// Has reports whether a stream for the kind is registered.
func (r *Registry) Has(kind Kind) bool {
	if r == nil {
		return false
	}
	_, ok := r.streams[kind]
	return ok
}

// Len returns the number of registered streams.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.streams)
}

// StartAll starts every registered stream, then pauses for the settling
// duration to let the first push updates arrive. The pause is bounded and
// honors context cancellation.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, stream := range r.streams {
		if err := stream.Start(); err != nil {
			return err
		}
	}
	if r.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(r.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DestroyAll destroys every registered stream and clears the registry. It is
// idempotent on an empty registry. The registry keeps destroying remaining
// streams after a failure and returns the first error encountered.
func (r *Registry) DestroyAll() error {
	var firstErr error
	for kind, stream := range r.streams {
		if err := stream.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.streams, kind)
	}
	return firstErr
}

// Snapshot reads the current value of every registered stream in one pass.
// Reading order across kinds is unspecified. Transport read errors propagate
// unmodified.
func (r *Registry) Snapshot() (Snapshot, error) {
	result := make(Snapshot, len(r.streams))
	for kind, stream := range r.streams {
		value, err := stream.Value()
		if err != nil {
			return nil, err
		}
		result[kind] = value
	}
	return result, nil
}
