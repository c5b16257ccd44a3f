package application

import (
	"context"
	"errors"
	"log"
	"time"

	alarms "krpc-telemetry/internal/alarms/domain"
	"krpc-telemetry/internal/observability/metrics"
	"krpc-telemetry/internal/telemetry/application/events"
	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// AlarmEvent describes one rule firing on an accepted sample.
type AlarmEvent struct {
	RuleID     string          `json:"rule_id"`
	RuleName   string          `json:"rule_name"`
	Kind       telemetry.Kind  `json:"-"`
	KindName   string          `json:"kind"`
	Strategy   string          `json:"strategy"`
	Met        int64           `json:"met"`
	Value      float64         `json:"value"`
	Threshold  float64         `json:"threshold"`
	Operator   alarms.Operator `json:"operator"`
	Severity   string          `json:"severity"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// AlarmNotifier delivers alarm events. Implementations must be best-effort
// and never block the sampling path.
type AlarmNotifier interface {
	Notify(ctx context.Context, event AlarmEvent)
}

// Service evaluates threshold rules against accepted samples. A rule fires
// on the transition into its triggering condition and rearms once the
// condition clears, so a held condition raises one event, not one per
// sample.
type Service struct {
	rules    []alarms.Rule
	notifier AlarmNotifier
	logger   *log.Logger

	active map[string]bool
}

// NewService constructs the alarm service. All rules are validated up front.
func NewService(rules []alarms.Rule, notifier AlarmNotifier, logger *log.Logger) (*Service, error) {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		rules:    rules,
		notifier: notifier,
		logger:   logger,
		active:   make(map[string]bool),
	}, nil
}

// HandleSampleAccepted evaluates every enabled rule against the sample.
func (s *Service) HandleSampleAccepted(ctx context.Context, event any) error {
	if s == nil {
		return errors.New("alarm service: nil service")
	}
	sample, ok := event.(events.SampleAccepted)
	if !ok {
		return errors.New("alarm service: unexpected event type")
	}

	for _, rule := range s.rules {
		if !rule.Enabled {
			continue
		}
		value, ok := sample.Values[rule.Kind]
		if !ok {
			continue
		}
		triggered := rule.Operator.Matches(value, rule.Threshold)
		wasActive := s.active[rule.ID]
		s.active[rule.ID] = triggered
		if !triggered || wasActive {
			continue
		}

		metrics.ObserveAlarm(rule.Severity)
		s.logger.Printf("alarm %s: %s %s %v (value %v, met %d)", rule.Severity, rule.Kind, rule.Operator, rule.Threshold, value, sample.Met)
		if s.notifier != nil {
			s.notifier.Notify(ctx, AlarmEvent{
				RuleID:     rule.ID,
				RuleName:   rule.Name,
				Kind:       rule.Kind,
				KindName:   rule.Kind.String(),
				Strategy:   sample.Strategy,
				Met:        sample.Met,
				Value:      value,
				Threshold:  rule.Threshold,
				Operator:   rule.Operator,
				Severity:   rule.Severity,
				OccurredAt: time.Now().UTC(),
			})
		}
	}
	return nil
}
