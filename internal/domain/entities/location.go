// Package entities defines core domain models and data structures.
package entities

import "path"

// ArchiveLocation identifies one archive loaded by the observed process.
// Values are immutable once built by the location resolver.
type ArchiveLocation struct {
	Raw      string // code source location as reported by the hook
	Identity string // normalized identity, the dedup key
	Path     string // filesystem path of the outermost archive
	Entry    string // entry path inside Path, empty unless nested
}

// IsNested reports whether the archive lives inside another archive
func (l ArchiveLocation) IsNested() bool {
	return l.Entry != ""
}

// Name returns the archive display name (e.g. "commons-io-2.11.0.jar")
func (l ArchiveLocation) Name() string {
	if l.IsNested() {
		return path.Base(l.Entry)
	}
	return path.Base(l.Path)
}

func (l ArchiveLocation) String() string {
	return l.Identity
}
