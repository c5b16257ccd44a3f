package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"krpc-telemetry/internal/eventing"
	"krpc-telemetry/internal/observability/metrics"
	strategyapp "krpc-telemetry/internal/strategy/application"
	"krpc-telemetry/internal/telemetry/application/events"
	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// StreamFactory builds the stream for a telemetry kind.
type StreamFactory interface {
	Create(ctx context.Context, kind telemetry.Kind) (*telemetry.Stream, error)
}

// BuildRegistry constructs a registry covering the union of the samplers'
// declared telemetry kinds. Met is always included because it indexes every
// accumulation table. Kinds shared between strategies are created once.
func BuildRegistry(ctx context.Context, factory StreamFactory, samplers []*strategyapp.Sampler, opts ...telemetry.RegistryOption) (*telemetry.Registry, error) {
	if factory == nil {
		return nil, errors.New("telemetry poller: nil factory")
	}
	registry := telemetry.NewRegistry(opts...)

	kinds := []telemetry.Kind{telemetry.KindMET}
	for _, sampler := range samplers {
		kinds = append(kinds, sampler.Strategy().Kinds()...)
	}
	for _, kind := range kinds {
		if registry.Has(kind) {
			continue
		}
		stream, err := factory.Create(ctx, kind)
		if err != nil {
			return nil, err
		}
		registry.Register(stream)
	}
	return registry, nil
}

// Poller alternates "take snapshot" and "feed to samplers" on a single
// goroutine. The transport pushes updates on its own schedule; the poller
// only ever observes the latest value at read time.
type Poller struct {
	registry *telemetry.Registry
	samplers []*strategyapp.Sampler
	bus      eventing.EventBus
	interval time.Duration
	logger   *log.Logger

	mu   sync.RWMutex
	last telemetry.Snapshot
}

// NewPoller constructs a poller.
func NewPoller(registry *telemetry.Registry, samplers []*strategyapp.Sampler, bus eventing.EventBus, interval time.Duration, logger *log.Logger) (*Poller, error) {
	if registry == nil {
		return nil, errors.New("telemetry poller: nil registry")
	}
	if len(samplers) == 0 {
		return nil, errors.New("telemetry poller: no samplers")
	}
	if interval <= 0 {
		return nil, errors.New("telemetry poller: non-positive interval")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		registry: registry,
		samplers: samplers,
		bus:      bus,
		interval: interval,
		logger:   logger,
	}, nil
}

// Samplers returns the samplers fed by this poller.
func (p *Poller) Samplers() []*strategyapp.Sampler {
	return p.samplers
}

// LastSnapshot returns the most recent snapshot taken, if any.
func (p *Poller) LastSnapshot() (telemetry.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return nil, false
	}
	snap := make(telemetry.Snapshot, len(p.last))
	for k, v := range p.last {
		snap[k] = v
	}
	return snap, true
}

// Run starts every stream, waits out the settling pause and then polls
// until the context is cancelled. The registry is torn down before Run
// returns; the poller is not reusable afterwards.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.registry.StartAll(ctx); err != nil {
		if destroyErr := p.registry.DestroyAll(); destroyErr != nil {
			p.logger.Printf("telemetry poller: destroy after failed start: %v", destroyErr)
		}
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.registry.DestroyAll()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	started := time.Now()
	snap, err := p.registry.Snapshot()
	if err != nil {
		metrics.ObserveSnapshotError()
		p.logger.Printf("telemetry poller: snapshot error: %v", err)
		return
	}
	metrics.ObserveSnapshot(time.Since(started))

	p.mu.Lock()
	p.last = snap
	p.mu.Unlock()

	met, ok := metOf(snap)
	if !ok {
		// Expected right after start until the first met push arrives.
		p.logger.Printf("telemetry poller: met not available yet, skipping snapshot")
		return
	}

	for _, sampler := range p.samplers {
		name := sampler.Strategy().Name()
		row, accepted, err := sampler.Observe(met, snap)
		if err != nil {
			p.logger.Printf("telemetry poller: strategy %s: %v", name, err)
			continue
		}
		if !accepted {
			metrics.ObserveSampleDiscarded(name)
			continue
		}
		metrics.ObserveSampleAccepted(name)
		p.publishAccepted(ctx, name, row)
	}
}

// publishAccepted notifies sinks after accumulation has already succeeded.
// Sink failures are logged, never propagated into the sampling path.
func (p *Poller) publishAccepted(ctx context.Context, name string, row telemetry.Row) {
	if p.bus == nil {
		return
	}
	event := events.SampleAccepted{
		Strategy:   name,
		Met:        row.Met,
		Values:     row.Values,
		OccurredAt: time.Now().UTC(),
	}
	if err := p.bus.Publish(ctx, event); err != nil {
		p.logger.Printf("telemetry poller: publish sample event: %v", err)
	}
}

func metOf(snap telemetry.Snapshot) (int64, bool) {
	value, ok := snap[telemetry.KindMET]
	if !ok {
		return 0, false
	}
	f, ok := value.Float()
	if !ok {
		return 0, false
	}
	return int64(f), true
}
