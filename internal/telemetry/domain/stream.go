package telemetry

import (
	"errors"
	"fmt"
)

// Feed is a transport-owned live value. The transport pushes updates at a
// bounded rate; reading never blocks waiting for a fresh push, it only
// observes the latest pushed value.
type Feed interface {
	// SetRate caps how often the transport pushes updates, in hertz.
	SetRate(hz float64) error
	// Start enables push updates. No initial synchronous fetch is performed.
	Start() error
	// Value returns the most recent pushed value.
	Value() (Value, error)
	// Remove releases the feed on the transport side.
	Remove() error
}

// Stream couples one feed with its telemetry kind and an optional unit
// transform. A stream exclusively owns its feed: it is started exactly once,
// read any number of times, and destroyed exactly once.
type Stream struct {
	kind      Kind
	feed      Feed
	rate      float64
	transform Transform
}

// NewStream constructs a stream and immediately sets the feed's update rate.
// The rate must be positive and is fixed for the life of the stream.
func NewStream(kind Kind, feed Feed, rate float64, transform Transform) (*Stream, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("telemetry stream: unknown telemetry kind %s", kind)
	}
	if feed == nil {
		return nil, errors.New("telemetry stream: nil feed")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("telemetry stream: non-positive rate %v", rate)
	}
	if err := feed.SetRate(rate); err != nil {
		return nil, err
	}
	return &Stream{kind: kind, feed: feed, rate: rate, transform: transform}, nil
}

// Kind returns the telemetry kind this stream acquires.
func (s *Stream) Kind() Kind {
	return s.kind
}

// Rate returns the configured update rate in hertz.
func (s *Stream) Rate() float64 {
	return s.rate
}

// Start enables push updates on the underlying feed.
func (s *Stream) Start() error {
	return s.feed.Start()
}

// Value reads the latest pushed value, applying the transform when one is
// configured. Transport errors propagate unmodified.
func (s *Stream) Value() (Value, error) {
	value, err := s.feed.Value()
	if err != nil {
		return Value{}, err
	}
	if s.transform != nil {
		return s.transform(value), nil
	}
	return value, nil
}

// Destroy releases the underlying feed. The stream must not be read after.
func (s *Stream) Destroy() error {
	return s.feed.Remove()
}
