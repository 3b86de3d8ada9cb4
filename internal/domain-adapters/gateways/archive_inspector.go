package gateways

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces"
	"github.com/ochairo/depscout/internal/domain/interfaces/gateways"
)

// detachedSignatureSuffix is the Maven Central convention for OpenPGP signatures
const detachedSignatureSuffix = ".asc"

// archiveInspector implements ArchiveInspector over zip archives.
// Inspect calls are serialized; the engine only has one worker anyway.
type archiveInspector struct {
	hasher   *ContentHasher
	opener   *archiveOpener
	verifier gateways.SignatureVerifier
	logger   interfaces.Logger

	mu sync.Mutex
}

// ArchiveInspectorConfig holds inspector settings
type ArchiveInspectorConfig struct {
	OuterArchiveCache int
	TempDir           string // spool directory for compressed nested archives, "" for os.TempDir
}

// NewArchiveInspector creates a new archive inspector. verifier may be nil.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewArchiveInspector(hasher *ContentHasher, verifier gateways.SignatureVerifier, logger interfaces.Logger, config ArchiveInspectorConfig) (*archiveInspector, error) {
	if hasher == nil {
		return nil, fmt.Errorf("hasher cannot be nil")
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	cacheSize := config.OuterArchiveCache
	if cacheSize < 1 {
		cacheSize = 1
	}

	opener, err := newArchiveOpener(cacheSize)
	if err != nil {
		return nil, err
	}
	opener.tempDir = config.TempDir

	return &archiveInspector{
		hasher:   hasher,
		opener:   opener,
		verifier: verifier,
		logger:   logger,
	}, nil
}

// Inspect extracts checksums, manifest and provenance metadata for loc.
// Each attribute is extracted independently; failures are logged together
// and only leave that attribute out.
func (i *archiveInspector) Inspect(ctx context.Context, loc entities.ArchiveLocation) (*entities.ArchiveMetadata, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	handle, err := i.opener.Open(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", loc.Identity, err)
	}
	defer func() {
		if err := handle.Close(); err != nil {
			i.logger.Debug("failed to release archive", interfaces.F("location", loc.Identity), interfaces.Err(err))
		}
	}()

	md := &entities.ArchiveMetadata{
		Version:   entities.UnknownVersion,
		Checksums: make(map[string]string, len(i.hasher.algorithms)),
	}

	var errs error
	for _, alg := range i.hasher.algorithms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum, err := i.checksum(handle, alg)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s checksum: %w", alg, err))
			continue
		}
		md.Checksums[string(alg)] = sum
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs = multierr.Append(errs, i.archiveAttributes(handle, loc, md))

	if i.verifier != nil && !loc.IsNested() {
		errs = multierr.Append(errs, i.signature(loc, md))
	}

	if errs != nil {
		i.logger.Warn("incomplete archive metadata",
			interfaces.F("location", loc.Identity),
			interfaces.F("failures", len(multierr.Errors(errs))),
			interfaces.Err(errs),
		)
	}

	return md, nil
}

func (i *archiveInspector) checksum(handle *archiveHandle, alg Algorithm) (string, error) {
	rc, err := handle.Content()
	if err != nil {
		return "", err
	}
	//nolint:errcheck // Defer close on read-only stream
	defer rc.Close()

	return i.hasher.Hash(rc, alg)
}

// archiveAttributes fills manifest and provenance fields
func (i *archiveInspector) archiveAttributes(handle *archiveHandle, loc entities.ArchiveLocation, md *entities.ArchiveMetadata) error {
	archive, err := handle.Archive()
	if err != nil {
		return err
	}

	var errs error

	mf, err := readManifest(archive)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("manifest: %w", err))
	} else if mf != nil {
		md.Title = mf.Get(manifestImplementationTitle)
		md.Vendor = mf.Get(manifestImplementationVendor)
		md.VendorID = mf.Get(manifestImplementationVendorID)
	}

	prov, err := readProvenance(archive)
	switch {
	case errors.Is(err, ErrAmbiguousProvenance):
		// policy, not failure: leave coordinate and version out
		md.Version = ""
		i.logger.Debug("skipping ambiguous provenance", interfaces.F("location", loc.Identity), interfaces.Err(err))
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("provenance: %w", err))
	case prov != nil:
		md.Provenance = prov
		md.Coordinate = prov.Coordinate()
		if v := prov.Version(); v != "" {
			md.Version = v
		}
	}

	return errs
}

// signature checks a detached .asc next to a plain jar, when one exists
func (i *archiveInspector) signature(loc entities.ArchiveLocation, md *entities.ArchiveMetadata) error {
	sigPath := loc.Path + detachedSignatureSuffix
	if _, err := os.Stat(sigPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("signature: %w", err)
	}

	err := i.verifier.VerifyDetachedSignature(loc.Path, sigPath)
	switch {
	case err == nil:
		md.Signature = entities.SignatureVerified
	case errors.Is(err, gateways.ErrSignatureMismatch):
		md.Signature = entities.SignatureInvalid
	default:
		return fmt.Errorf("signature: %w", err)
	}
	return nil
}

// Close releases cached outer archives
func (i *archiveInspector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.opener.Close()
}
