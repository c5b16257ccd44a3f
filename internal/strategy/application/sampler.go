package application

import (
	"errors"
	"fmt"

	strategy "krpc-telemetry/internal/strategy/domain"
	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// noSample marks a sampler that has not accepted anything yet; the first
// snapshot is always accepted.
const noSample int64 = -1

// Sampler decimates the snapshot feed for one strategy and appends accepted
// samples to the strategy's table. Out-of-cadence snapshots are routine and
// are discarded silently. The sampler owns its table exclusively; notifying
// external sinks is the caller's concern, after Observe reports an accept.
type Sampler struct {
	strategy strategy.Strategy
	every    int64
	lastMet  int64
	table    *telemetry.Table
}

// NewSampler constructs a sampler and its empty accumulation table.
func NewSampler(s strategy.Strategy) (*Sampler, error) {
	if s == nil {
		return nil, errors.New("sampler: nil strategy")
	}
	every := s.CollectEvery()
	if every <= 0 {
		return nil, fmt.Errorf("sampler: strategy %s has non-positive cadence %d", s.Name(), every)
	}
	table, err := telemetry.NewTable(s.Columns())
	if err != nil {
		return nil, err
	}
	return &Sampler{strategy: s, every: every, lastMet: noSample, table: table}, nil
}

// Strategy returns the wrapped variant.
func (s *Sampler) Strategy() strategy.Strategy {
	return s.strategy
}

// Table returns the accumulation table.
func (s *Sampler) Table() *telemetry.Table {
	return s.table
}

// Observe offers one snapshot at mission time met. It reports whether the
// sample was accepted. The accepted row is returned so the caller can
// notify sinks without re-reading the table.
func (s *Sampler) Observe(met int64, snap telemetry.Snapshot) (telemetry.Row, bool, error) {
	if s.lastMet != noSample && met < s.lastMet+s.every {
		return telemetry.Row{}, false, nil
	}

	row, err := s.strategy.Row(met, snap)
	if err != nil {
		return telemetry.Row{}, false, err
	}
	if err := s.table.Append(row); err != nil {
		return telemetry.Row{}, false, err
	}
	s.lastMet = met
	return row, true, nil
}
