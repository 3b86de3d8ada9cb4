package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces/services"
)

// detectionQueue combines the seen set and the pending buffer.
// Producers only touch a sync.Map, a short mutex around a slice append and
// a non-blocking channel send, so Offer never waits on the consumer.
type detectionQueue struct {
	seen   sync.Map // identity -> struct{}
	nSeen  atomic.Int64
	closed atomic.Bool

	mu      sync.Mutex
	pending []entities.ArchiveLocation

	notify chan struct{}
}

// NewDetectionQueue creates an empty, unbounded detection queue
func NewDetectionQueue() services.DetectionQueue {
	return &detectionQueue{
		notify: make(chan struct{}, 1),
	}
}

// Offer enqueues loc if its identity is new
func (q *detectionQueue) Offer(loc entities.ArchiveLocation) bool {
	if q.closed.Load() {
		return false
	}
	if _, loaded := q.seen.LoadOrStore(loc.Identity, struct{}{}); loaded {
		return false
	}
	q.nSeen.Add(1)

	q.mu.Lock()
	q.pending = append(q.pending, loc)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Take returns the oldest pending location, waiting up to timeout for one
func (q *detectionQueue) Take(ctx context.Context, timeout time.Duration) (entities.ArchiveLocation, bool) {
	if loc, ok := q.pop(); ok {
		return loc, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return entities.ArchiveLocation{}, false
		case <-timer.C:
			return q.pop()
		case <-q.notify:
			if loc, ok := q.pop(); ok {
				return loc, true
			}
		}
	}
}

func (q *detectionQueue) pop() (entities.ArchiveLocation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return entities.ArchiveLocation{}, false
	}
	loc := q.pending[0]
	q.pending[0] = entities.ArchiveLocation{}
	q.pending = q.pending[1:]
	if len(q.pending) > 0 {
		// wake the next Take without waiting for another Offer
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return loc, true
}

// Len returns the number of pending locations
func (q *detectionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Seen returns the number of distinct identities ever accepted
func (q *detectionQueue) Seen() int {
	return int(q.nSeen.Load())
}

// Close rejects further offers. Pending locations stay readable.
func (q *detectionQueue) Close() {
	q.closed.Store(true)
}
