package gateways

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/magiconair/properties"
)

// Maven writes build coordinates to META-INF/maven/<group>/<artifact>/pom.properties
const (
	provenanceDir  = "META-INF/maven/"
	provenanceFile = "pom.properties"
)

// Well-known pom.properties keys
const (
	provenanceGroupID    = "groupId"
	provenanceArtifactID = "artifactId"
	provenanceVersion    = "version"
)

const maxProvenanceSize = 1 << 20

// ErrAmbiguousProvenance is returned when an archive carries more than one
// pom.properties; shaded jars do this and no single coordinate can be trusted
var ErrAmbiguousProvenance = errors.New("multiple provenance files")

// provenance is the parsed content of one pom.properties file
type provenance map[string]string

// Coordinate returns "groupId:artifactId", or "" unless both are set
func (p provenance) Coordinate() string {
	group, artifact := p[provenanceGroupID], p[provenanceArtifactID]
	if group == "" || artifact == "" {
		return ""
	}
	return group + ":" + artifact
}

// Version returns the provenance version, or "" when absent
func (p provenance) Version() string {
	return p[provenanceVersion]
}

// findProvenanceEntries returns every pom.properties under the provenance directory
func findProvenanceEntries(archive *zip.Reader) []*zip.File {
	var found []*zip.File
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(f.Name, provenanceDir) && strings.HasSuffix(f.Name, provenanceFile) {
			found = append(found, f)
		}
	}
	return found
}

// readProvenance returns the single provenance file of an archive, (nil, nil)
// when there is none, or ErrAmbiguousProvenance when there are several
func readProvenance(archive *zip.Reader) (provenance, error) {
	entries := findProvenanceEntries(archive)
	switch len(entries) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: found %d", ErrAmbiguousProvenance, len(entries))
	}

	rc, err := entries[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", entries[0].Name, err)
	}
	//nolint:errcheck // Defer close on read-only entry
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxProvenanceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entries[0].Name, err)
	}

	return parseProvenance(data)
}

// parseProvenance decodes pom.properties content. Values are taken literally:
// ${...} references are not expanded.
func parseProvenance(data []byte) (provenance, error) {
	loader := &properties.Loader{
		Encoding:         properties.ISO_8859_1,
		DisableExpansion: true,
	}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provenance properties: %w", err)
	}
	return provenance(props.Map()), nil
}
