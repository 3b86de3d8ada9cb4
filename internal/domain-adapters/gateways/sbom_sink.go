package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/depscout/internal/domain/entities"
)

const (
	cycloneDXFormat      = "CycloneDX"
	cycloneDXSpecVersion = "1.5"
	componentTypeLibrary = "library"
	toolName             = "depscout"
)

// checksumAlgorithms maps attribute suffixes back to CycloneDX hash names
var checksumAlgorithms = map[string]string{
	"sha1":   string(AlgorithmSHA1),
	"sha256": string(AlgorithmSHA256),
	"sha512": string(AlgorithmSHA512),
	"blake3": string(AlgorithmBLAKE3),
}

// sbomSink accumulates detection events into a CycloneDX document that is
// written once on Flush
type sbomSink struct {
	mu         sync.Mutex
	components map[string]entities.Component // keyed by location identity
	now        func() time.Time
}

// NewSBOMSink creates an event sink that builds a CycloneDX SBOM
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSBOMSink() *sbomSink {
	return &sbomSink{
		components: make(map[string]entities.Component),
		now:        time.Now,
	}
}

// Emit records one detected archive as a library component
func (s *sbomSink) Emit(_ context.Context, name string, attributes map[string]string) error {
	if name != entities.DependencyDetectedEvent {
		return fmt.Errorf("unexpected event %q", name)
	}
	key := attributes[entities.AttrPackageLocation]
	if key == "" {
		return fmt.Errorf("event has no %s attribute", entities.AttrPackageLocation)
	}

	component := componentFromAttributes(attributes)

	s.mu.Lock()
	s.components[key] = component
	s.mu.Unlock()
	return nil
}

// SBOM returns the document built so far, components sorted by bom-ref
func (s *sbomSink) SBOM() *entities.SBOM {
	s.mu.Lock()
	components := make([]entities.Component, 0, len(s.components))
	for _, c := range s.components {
		components = append(components, c)
	}
	s.mu.Unlock()

	sort.Slice(components, func(i, j int) bool {
		return components[i].BOMRef < components[j].BOMRef
	})

	return &entities.SBOM{
		BOMFormat:    cycloneDXFormat,
		SpecVersion:  cycloneDXSpecVersion,
		SerialNumber: "urn:uuid:" + uuid.NewString(),
		Version:      1,
		Components:   components,
		Metadata: entities.Metadata{
			Timestamp: s.now().UTC(),
			Tools: []entities.Tool{
				{Name: toolName},
			},
		},
	}
}

// Flush writes the SBOM as indented JSON
func (s *sbomSink) Flush(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.SBOM()); err != nil {
		return fmt.Errorf("failed to write SBOM: %w", err)
	}
	return nil
}

func componentFromAttributes(attrs map[string]string) entities.Component {
	c := entities.Component{
		Type:      componentTypeLibrary,
		BOMRef:    attrs[entities.AttrPackageLocation],
		Name:      attrs[entities.AttrPackagePath],
		Publisher: attrs[entities.AttrPackageVendor],
	}

	version := attrs[entities.AttrPackageVersion]
	if version != entities.UnknownVersion {
		c.Version = version
	}

	if group, artifact, ok := strings.Cut(attrs[entities.AttrPackageName], ":"); ok {
		c.Group = group
		c.Name = artifact
		if c.Version != "" {
			c.PURL = mavenPURL(group, artifact, c.Version)
		}
	}

	for key, value := range attrs {
		switch {
		case strings.HasPrefix(key, entities.AttrChecksumPrefix):
			if alg, ok := checksumAlgorithms[strings.TrimPrefix(key, entities.AttrChecksumPrefix)]; ok {
				c.Hashes = append(c.Hashes, entities.Hash{Algorithm: alg, Value: value})
			}
		case key == entities.AttrPackageSignature || key == entities.AttrPackageDescription:
			c.Properties = append(c.Properties, entities.Property{Name: toolName + ":" + key, Value: value})
		}
	}

	sort.Slice(c.Hashes, func(i, j int) bool { return c.Hashes[i].Algorithm < c.Hashes[j].Algorithm })
	sort.Slice(c.Properties, func(i, j int) bool { return c.Properties[i].Name < c.Properties[j].Name })
	return c
}

// mavenPURL renders pkg:maven/<group>/<artifact>@<version>
func mavenPURL(group, artifact, version string) string {
	return fmt.Sprintf("pkg:maven/%s/%s@%s",
		url.PathEscape(group), url.PathEscape(artifact), url.PathEscape(version))
}
