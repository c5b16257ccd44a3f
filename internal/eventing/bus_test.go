package eventing

import (
	"context"
	"errors"
	"testing"
)

type sampleTaken struct{ Strategy string }
type alarmRaised struct{ RuleID string }

func TestInMemoryBus_RoutesByEventType(t *testing.T) {
	bus := NewInMemoryBus()
	var samples, alarms int
	bus.Subscribe(EventTypeOf[sampleTaken](), func(context.Context, any) error {
		samples++
		return nil
	})
	bus.Subscribe(EventTypeOf[alarmRaised](), func(context.Context, any) error {
		alarms++
		return nil
	})

	if err := bus.Publish(context.Background(), sampleTaken{Strategy: "orbital_velocity"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if samples != 1 || alarms != 0 {
		t.Fatalf("expected samples=1 alarms=0, got samples=%d alarms=%d", samples, alarms)
	}
}

func TestInMemoryBus_AllHandlersRunAndErrorsJoin(t *testing.T) {
	bus := NewInMemoryBus()
	errArchive := errors.New("archive down")
	errWebhook := errors.New("webhook down")
	var lastRan bool
	eventType := EventTypeOf[sampleTaken]()
	bus.Subscribe(eventType, func(context.Context, any) error {
		return errArchive
	})
	bus.Subscribe(eventType, func(context.Context, any) error {
		return errWebhook
	})
	bus.Subscribe(eventType, func(context.Context, any) error {
		lastRan = true
		return nil
	})

	err := bus.Publish(context.Background(), sampleTaken{})
	if !errors.Is(err, errArchive) || !errors.Is(err, errWebhook) {
		t.Fatalf("expected both sink errors in the joined result, got %v", err)
	}
	if !lastRan {
		t.Fatal("expected the handler after the failing ones to run")
	}
}

func TestInMemoryBus_NilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestInMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), sampleTaken{}); err != nil {
		t.Fatalf("expected no error without subscribers, got %v", err)
	}
}

func TestInMemoryBus_PointerEventRoutesLikeValue(t *testing.T) {
	bus := NewInMemoryBus()
	var seen int
	bus.Subscribe(EventTypeOf[alarmRaised](), func(context.Context, any) error {
		seen++
		return nil
	})
	if err := bus.Publish(context.Background(), &alarmRaised{RuleID: "high-g"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if seen != 1 {
		t.Fatalf("expected 1 delivery for a pointer event, got %d", seen)
	}
}
