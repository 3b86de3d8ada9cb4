package gateways

import (
	"errors"
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zip"
	"go.uber.org/multierr"

	"github.com/ochairo/depscout/internal/domain/entities"
)

// ErrEntryNotFound is returned when a nested location names an entry the outer archive lacks
var ErrEntryNotFound = errors.New("nested entry not found")

// outerArchive is an open war/ear/jar that nested locations point into
type outerArchive struct {
	file   *os.File
	reader *zip.Reader
	index  map[string]*zip.File
}

func (o *outerArchive) Close() error {
	return o.file.Close()
}

// archiveOpener resolves a location to readable content. Outer archives of
// nested locations stay open in an LRU cache; eviction closes them.
type archiveOpener struct {
	outers  *lru.Cache[string, *outerArchive]
	tempDir string
}

func newArchiveOpener(cacheSize int) (*archiveOpener, error) {
	cache, err := lru.NewWithEvict[string, *outerArchive](cacheSize, func(_ string, o *outerArchive) {
		//nolint:errcheck // read-only handle
		o.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create outer archive cache: %w", err)
	}
	return &archiveOpener{outers: cache}, nil
}

// archiveHandle gives a location two views: a sequential content stream for
// hashing (fresh per call) and a random-access archive view for metadata
type archiveHandle struct {
	content func() (io.ReadCloser, error)
	archive func() (*zip.Reader, error)
	cleanup []func() error
}

// Content opens a new stream over the archive bytes
func (h *archiveHandle) Content() (io.ReadCloser, error) {
	return h.content()
}

// Archive returns a random-access view of the archive entries
func (h *archiveHandle) Archive() (*zip.Reader, error) {
	return h.archive()
}

// Close releases per-location resources. Cached outer archives stay open.
func (h *archiveHandle) Close() error {
	errs := make([]error, 0, len(h.cleanup))
	for i := len(h.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, h.cleanup[i]())
	}
	return multierr.Combine(errs...)
}

// Open prepares the handle for loc
func (o *archiveOpener) Open(loc entities.ArchiveLocation) (*archiveHandle, error) {
	if loc.IsNested() {
		return o.openNested(loc)
	}
	return o.openPlain(loc)
}

func (o *archiveOpener) openPlain(loc entities.ArchiveLocation) (*archiveHandle, error) {
	info, err := os.Stat(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("archive path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("archive path %s is a directory", loc.Path)
	}

	h := &archiveHandle{
		content: func() (io.ReadCloser, error) {
			//nolint:gosec // G304: path comes from the observed process' code source
			return os.Open(loc.Path)
		},
	}

	var (
		file   *os.File
		reader *zip.Reader
	)
	h.archive = func() (*zip.Reader, error) {
		if reader != nil {
			return reader, nil
		}
		if file == nil {
			//nolint:gosec // G304: see above
			f, err := os.Open(loc.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to open archive: %w", err)
			}
			file = f
			h.cleanup = append(h.cleanup, f.Close)
		}
		r, err := zip.NewReader(file, info.Size())
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}
		reader = r
		return reader, nil
	}

	return h, nil
}

func (o *archiveOpener) openNested(loc entities.ArchiveLocation) (*archiveHandle, error) {
	outer, err := o.outer(loc.Path)
	if err != nil {
		return nil, err
	}

	entry, ok := outer.index[loc.Entry]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, loc.Entry, loc.Path)
	}

	h := &archiveHandle{
		content: func() (io.ReadCloser, error) {
			return entry.Open()
		},
	}

	var reader *zip.Reader
	h.archive = func() (*zip.Reader, error) {
		if reader != nil {
			return reader, nil
		}
		r, cleanup, err := o.nestedReader(outer, entry)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			h.cleanup = append(h.cleanup, cleanup)
		}
		reader = r
		return reader, nil
	}

	return h, nil
}

// outer returns the cached outer archive for path, opening it on first use
func (o *archiveOpener) outer(path string) (*outerArchive, error) {
	if cached, ok := o.outers.Get(path); ok {
		return cached, nil
	}

	//nolint:gosec // G304: path comes from the observed process' code source
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outer archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat outer archive: %w", err)
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read outer archive: %w", err)
	}

	index := make(map[string]*zip.File, len(r.File))
	for _, zf := range r.File {
		if _, dup := index[zf.Name]; !dup {
			index[zf.Name] = zf
		}
	}

	outer := &outerArchive{file: f, reader: r, index: index}
	o.outers.Add(path, outer)
	return outer, nil
}

// nestedReader opens the inner archive with random access. Stored entries
// are read in place through a section of the outer file; compressed entries
// are spooled to a temp file first.
func (o *archiveOpener) nestedReader(outer *outerArchive, entry *zip.File) (*zip.Reader, func() error, error) {
	size := int64(entry.UncompressedSize64)

	if entry.Method == zip.Store {
		offset, err := entry.DataOffset()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to locate nested entry data: %w", err)
		}
		r, err := zip.NewReader(io.NewSectionReader(outer.file, offset, size), size)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read nested archive: %w", err)
		}
		return r, nil, nil
	}

	tmp, err := os.CreateTemp(o.tempDir, "depscout-nested-*.jar")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create spool file: %w", err)
	}
	cleanup := func() error {
		closeErr := tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil {
			return err
		}
		return closeErr
	}

	rc, err := entry.Open()
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("failed to open nested entry: %w", err)
	}
	n, err := io.Copy(tmp, rc)
	_ = rc.Close()
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("failed to spool nested entry: %w", err)
	}

	r, err := zip.NewReader(tmp, n)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("failed to read nested archive: %w", err)
	}
	return r, cleanup, nil
}

// Close closes every cached outer archive
func (o *archiveOpener) Close() error {
	o.outers.Purge()
	return nil
}
