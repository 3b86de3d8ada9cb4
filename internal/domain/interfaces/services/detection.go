// Package services defines interfaces for domain service contracts.
package services

import (
	"context"
	"time"

	"github.com/ochairo/depscout/internal/domain/entities"
)

// LocationResolver turns raw code-source locations into archive locations.
// Skips and malformed input are reported as errors and must never reach the hook caller.
type LocationResolver interface {
	Resolve(raw string) (entities.ArchiveLocation, error)
}

// DetectionQueue is the deduplicating intake between the hook and the worker
type DetectionQueue interface {
	// Offer enqueues loc unless its identity was seen before. Never blocks.
	Offer(loc entities.ArchiveLocation) bool

	// Take waits up to timeout for a pending location
	Take(ctx context.Context, timeout time.Duration) (entities.ArchiveLocation, bool)

	Len() int
	Seen() int
	Close()
}
