package orchestrators

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces"
	"github.com/ochairo/depscout/internal/domain/interfaces/gateways"
	"github.com/ochairo/depscout/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/depscout/internal/domain/services"
)

// detectionWorker drains the queue on a single goroutine. All archive I/O
// happens here, behind the token bucket, so startup bursts of class loading
// are smoothed out instead of dropped.
type detectionWorker struct {
	queue        services.DetectionQueue
	inspector    gateways.ArchiveInspector
	sink         gateways.EventSink
	limiter      *rate.Limiter
	logger       interfaces.Logger
	pollInterval time.Duration
	instanceID   string
	stats        *engineCounters
}

// run loops until ctx is cancelled. The short queue wait bounds how long a
// stop request can go unnoticed.
func (w *detectionWorker) run(ctx context.Context) {
	for ctx.Err() == nil {
		loc, ok := w.queue.Take(ctx, w.pollInterval)
		if !ok {
			continue
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		w.process(ctx, loc)
	}
}

// process inspects one archive and emits its event. Nothing that goes wrong
// here may stop the loop.
func (w *detectionWorker) process(ctx context.Context, loc entities.ArchiveLocation) {
	defer w.stats.completed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			w.stats.failed.Add(1)
			w.logger.Error("recovered panic while processing archive",
				interfaces.F("location", loc.Identity),
				interfaces.F("panic", r),
			)
		}
	}()

	md, err := w.inspector.Inspect(ctx, loc)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.stats.failed.Add(1)
		w.logger.Warn("error processing archive", interfaces.F("location", loc.Identity), interfaces.Err(err))
		return
	}
	w.stats.processed.Add(1)

	event := domainservices.BuildDetectionEvent(loc, md, w.instanceID)
	if err := w.sink.Emit(ctx, event.Name, event.Attributes); err != nil {
		w.stats.emitFailures.Add(1)
		w.logger.Warn("failed to emit detection event", interfaces.F("location", loc.Identity), interfaces.Err(err))
		return
	}
	w.stats.emitted.Add(1)
	w.logger.Debug("dependency detected",
		interfaces.F("location", loc.Identity),
		interfaces.F("version", md.Version),
	)
}
