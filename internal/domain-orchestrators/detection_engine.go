// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces"
	"github.com/ochairo/depscout/internal/domain/interfaces/gateways"
	"github.com/ochairo/depscout/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/depscout/internal/domain/services"
)

// EngineState is the lifecycle state of a DetectionEngine
type EngineState int32

// Engine lifecycle: Created -> Started -> Running -> Stopped
const (
	StateCreated EngineState = iota
	StateStarted
	StateRunning
	StateStopped
)

func (s EngineState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("EngineState(%d)", int32(s))
	}
}

// Lifecycle errors
var (
	ErrNilSink       = errors.New("event sink cannot be nil")
	ErrEngineStopped = errors.New("detection engine already stopped")
	ErrStopTimeout   = errors.New("detection worker did not stop in time")
)

// EngineStats is a snapshot of the engine counters
type EngineStats struct {
	Offered      int64 // new identities queued
	Duplicates   int64 // resolved locations whose identity was already seen
	Skipped      int64 // runtime modules and non-archive locations
	Unresolvable int64 // malformed locations
	Processed    int64 // archives inspected
	Failed       int64 // archives that could not be inspected
	Emitted      int64 // events accepted by the sink
	EmitFailures int64 // events the sink rejected
	Pending      int   // locations waiting in the queue
}

type engineCounters struct {
	offered      atomic.Int64
	duplicates   atomic.Int64
	skipped      atomic.Int64
	unresolvable atomic.Int64
	processed    atomic.Int64
	failed       atomic.Int64
	emitted      atomic.Int64
	emitFailures atomic.Int64
	completed    atomic.Int64
}

// DetectionEngine wires the location resolver, the dedup queue and the
// rate-limited worker together. Bootstrap owns exactly one per process and
// hands it to whatever installs the class-loading hook.
type DetectionEngine struct {
	resolver  services.LocationResolver
	queue     services.DetectionQueue
	inspector gateways.ArchiveInspector
	logger    interfaces.Logger
	config    entities.DetectionConfig

	instanceID string

	// rawSeen short-circuits repeated hook calls for one code source before
	// any parsing; the hook fires once per loaded class
	rawSeen sync.Map

	state    atomic.Int32
	started  atomic.Bool
	stopOnce sync.Once

	// mu orders the Created->Started transition in Start against the
	// Stopped transition in Stop, so a worker is never launched unseen by Stop
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	stats engineCounters
}

// NewDetectionEngine creates an engine in the Created state
func NewDetectionEngine(
	resolver services.LocationResolver,
	queue services.DetectionQueue,
	inspector gateways.ArchiveInspector,
	logger interfaces.Logger,
	config entities.DetectionConfig,
) (*DetectionEngine, error) {
	if resolver == nil || queue == nil || inspector == nil {
		return nil, fmt.Errorf("resolver, queue and inspector are required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	instanceID := uuid.NewString()
	return &DetectionEngine{
		resolver:   resolver,
		queue:      queue,
		inspector:  inspector,
		logger:     logger.With(interfaces.F("instance_id", instanceID)),
		config:     config,
		instanceID: instanceID,
		done:       make(chan struct{}),
	}, nil
}

// InstanceID identifies this engine in emitted events
func (e *DetectionEngine) InstanceID() string {
	return e.instanceID
}

// State returns the current lifecycle state
func (e *DetectionEngine) State() EngineState {
	return EngineState(e.state.Load())
}

// Handle is the observation hook entry point. It is safe for concurrent use,
// never blocks on I/O and never panics into the caller. Locations handed in
// before Start are queued and processed once the worker runs.
func (e *DetectionEngine) Handle(raw string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recovered panic in detection hook", interfaces.F("location", raw), interfaces.F("panic", r))
		}
	}()

	if raw == "" || e.State() == StateStopped {
		return
	}
	if _, loaded := e.rawSeen.LoadOrStore(raw, struct{}{}); loaded {
		return
	}

	loc, err := e.resolver.Resolve(raw)
	if err != nil {
		switch {
		case errors.Is(err, domainservices.ErrNoLocation):
		case errors.Is(err, domainservices.ErrUnresolvableLocation):
			e.stats.unresolvable.Add(1)
			e.logger.Warn("unable to resolve code location", interfaces.F("location", raw), interfaces.Err(err))
		default:
			e.stats.skipped.Add(1)
			e.logger.Debug("skipping code location", interfaces.F("location", raw), interfaces.Err(err))
		}
		return
	}

	if e.queue.Offer(loc) {
		e.stats.offered.Add(1)
		return
	}
	e.stats.duplicates.Add(1)
}

// Start spawns the worker. Only the first call has any effect; later calls
// from other instrumentation entry points return nil.
func (e *DetectionEngine) Start(ctx context.Context, sink gateways.EventSink) error {
	if sink == nil {
		return ErrNilSink
	}
	if !e.started.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.CompareAndSwap(int32(StateCreated), int32(StateStarted)) {
		return ErrEngineStopped
	}

	workerCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	worker := &detectionWorker{
		queue:        e.queue,
		inspector:    e.inspector,
		sink:         sink,
		limiter:      rate.NewLimiter(rate.Limit(e.config.RateLimit), e.config.Burst),
		logger:       e.logger,
		pollInterval: e.config.PollInterval,
		instanceID:   e.instanceID,
		stats:        &e.stats,
	}

	go func() {
		defer close(e.done)
		e.state.CompareAndSwap(int32(StateStarted), int32(StateRunning))
		worker.run(workerCtx)
		e.state.Store(int32(StateStopped))
	}()

	e.logger.Info("detection engine started",
		interfaces.F("rate_limit", e.config.RateLimit),
		interfaces.F("pending", e.queue.Len()),
	)
	return nil
}

// Stop signals the worker to exit and waits up to timeout for it. Queued
// locations are abandoned. Safe to call more than once.
func (e *DetectionEngine) Stop(timeout time.Duration) error {
	var err error
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.state.Store(int32(StateStopped))
		cancel := e.cancel
		e.mu.Unlock()

		e.queue.Close()

		if cancel != nil {
			cancel()
			select {
			case <-e.done:
			case <-time.After(timeout):
				err = ErrStopTimeout
			}
		}

		if err == nil {
			if closeErr := e.inspector.Close(); closeErr != nil {
				e.logger.Warn("failed to release archive handles", interfaces.Err(closeErr))
			}
		}

		stats := e.Stats()
		e.logger.Info("detection engine stopped",
			interfaces.F("emitted", stats.Emitted),
			interfaces.F("failed", stats.Failed),
			interfaces.F("abandoned", stats.Pending),
		)
	})
	return err
}

// WaitIdle blocks until every queued location has been processed
func (e *DetectionEngine) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		if e.stats.completed.Load() >= e.stats.offered.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return ErrEngineStopped
		case <-ticker.C:
		}
	}
}

// Stats returns a snapshot of the engine counters
func (e *DetectionEngine) Stats() EngineStats {
	return EngineStats{
		Offered:      e.stats.offered.Load(),
		Duplicates:   e.stats.duplicates.Load(),
		Skipped:      e.stats.skipped.Load(),
		Unresolvable: e.stats.unresolvable.Load(),
		Processed:    e.stats.processed.Load(),
		Failed:       e.stats.failed.Load(),
		Emitted:      e.stats.emitted.Load(),
		EmitFailures: e.stats.emitFailures.Load(),
		Pending:      e.queue.Len(),
	}
}
