package telemetry

import (
	"errors"
	"testing"
)

type stubFeed struct {
	rate      float64
	rateCalls int
	started   bool
	removed   bool
	value     Value
	valueErr  error
	rateErr   error
}

func (f *stubFeed) SetRate(hz float64) error {
	f.rateCalls++
	f.rate = hz
	return f.rateErr
}

func (f *stubFeed) Start() error {
	f.started = true
	return nil
}

func (f *stubFeed) Value() (Value, error) {
	return f.value, f.valueErr
}

func (f *stubFeed) Remove() error {
	f.removed = true
	return nil
}

func TestNewStream_SetsRateImmediately(t *testing.T) {
	feed := &stubFeed{}
	stream, err := NewStream(KindOrbitalSpeed, feed, 2.0, nil)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	if feed.rateCalls != 1 {
		t.Fatalf("expected 1 rate call, got %d", feed.rateCalls)
	}
	if feed.rate != 2.0 {
		t.Fatalf("expected rate 2.0, got %v", feed.rate)
	}
	if stream.Rate() != 2.0 {
		t.Fatalf("expected stream rate 2.0, got %v", stream.Rate())
	}
}

func TestNewStream_Rejections(t *testing.T) {
	if _, err := NewStream(Kind(999), &stubFeed{}, 1, nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := NewStream(KindMET, nil, 1, nil); err == nil {
		t.Fatal("expected error for nil feed")
	}
	if _, err := NewStream(KindMET, &stubFeed{}, 0, nil); err == nil {
		t.Fatal("expected error for zero rate")
	}
	feed := &stubFeed{rateErr: errors.New("boom")}
	if _, err := NewStream(KindMET, feed, 1, nil); err == nil {
		t.Fatal("expected rate error to propagate")
	}
}

func TestStream_ValueAppliesTransform(t *testing.T) {
	feed := &stubFeed{value: NumericValue(12.99)}
	double := func(v Value) Value {
		f, _ := v.Float()
		return NumericValue(f * 2)
	}
	stream, err := NewStream(KindMET, feed, 1, double)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	value, err := stream.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	f, ok := value.Float()
	if !ok || f != 25.98 {
		t.Fatalf("expected 25.98, got %v", f)
	}
}

func TestStream_ValueErrorPropagates(t *testing.T) {
	feed := &stubFeed{valueErr: errors.New("transport down")}
	stream, err := NewStream(KindMET, feed, 1, nil)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	if _, err := stream.Value(); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestStream_DestroyRemovesFeed(t *testing.T) {
	feed := &stubFeed{}
	stream, err := NewStream(KindMET, feed, 1, nil)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	if err := stream.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if !feed.removed {
		t.Fatal("expected feed removed")
	}
}
