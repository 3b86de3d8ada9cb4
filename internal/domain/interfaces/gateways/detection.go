// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"errors"

	"github.com/ochairo/depscout/internal/domain/entities"
)

// ArchiveInspector reads checksums, manifest and provenance metadata of one
// archive. Individual attributes are best-effort: an error is returned only
// when the archive cannot be opened at all.
type ArchiveInspector interface {
	Inspect(ctx context.Context, loc entities.ArchiveLocation) (*entities.ArchiveMetadata, error)

	// Close releases cached archive handles
	Close() error
}

// EventSink receives detection events. The core does not retry failed emissions.
type EventSink interface {
	Emit(ctx context.Context, name string, attributes map[string]string) error
}

// EmitFunc adapts a plain function to EventSink
type EmitFunc func(ctx context.Context, name string, attributes map[string]string) error

// Emit calls f
func (f EmitFunc) Emit(ctx context.Context, name string, attributes map[string]string) error {
	return f(ctx, name, attributes)
}

// SignatureVerifier checks a detached OpenPGP signature against a keyring
type SignatureVerifier interface {
	VerifyDetachedSignature(filePath, sigPath string) error
}

// ErrSignatureMismatch marks a signature that was checked and did not verify,
// as opposed to one that could not be checked
var ErrSignatureMismatch = errors.New("signature does not match")
