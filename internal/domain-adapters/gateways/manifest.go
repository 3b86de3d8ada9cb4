package gateways

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

const manifestPath = "META-INF/MANIFEST.MF"

// Manifest attribute names read from the main section
const (
	manifestImplementationTitle    = "Implementation-Title"
	manifestImplementationVendor   = "Implementation-Vendor"
	manifestImplementationVendorID = "Implementation-Vendor-Id"
)

// maxManifestSize bounds how much of a manifest is read
const maxManifestSize = 1 << 20

// manifest holds main-section attributes keyed by lower-cased name,
// since manifest attribute names are case-insensitive
type manifest map[string]string

// Get returns the attribute value or "" when absent
func (m manifest) Get(name string) string {
	return m[strings.ToLower(name)]
}

// parseManifest reads the main section of a jar manifest. Continuation
// lines start with a single space; the main section ends at the first blank line.
func parseManifest(r io.Reader) (manifest, error) {
	attrs := manifest{}
	scanner := bufio.NewScanner(io.LimitReader(r, maxManifestSize))
	scanner.Buffer(make([]byte, 0, 4096), maxManifestSize)

	lastKey := ""
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}
		if line[0] == ' ' {
			if lastKey == "" {
				return nil, fmt.Errorf("continuation line without header: %q", line)
			}
			attrs[lastKey] += line[1:]
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid manifest header: %q", line)
		}
		lastKey = strings.ToLower(strings.TrimSpace(name))
		attrs[lastKey] = strings.TrimPrefix(value, " ")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return attrs, nil
}

// readManifest locates and parses META-INF/MANIFEST.MF. A missing manifest
// yields (nil, nil).
func readManifest(archive *zip.Reader) (manifest, error) {
	for _, f := range archive.File {
		if !strings.EqualFold(f.Name, manifestPath) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		//nolint:errcheck // Defer close on read-only entry
		defer rc.Close()
		return parseManifest(rc)
	}
	return nil, nil
}
