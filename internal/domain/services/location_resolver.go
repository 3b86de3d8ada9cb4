// Package services implements domain business logic and use cases.
package services

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces/services"
)

// Resolution outcomes other than success. All of them mean "skip"; only
// ErrUnresolvableLocation indicates bad input worth a warning.
var (
	ErrNoLocation           = errors.New("no code source location")
	ErrRuntimeModule        = errors.New("runtime module location")
	ErrUnsupportedLocation  = errors.New("unrecognized code location")
	ErrUnresolvableLocation = errors.New("unresolvable location")
)

const (
	jarExtension   = ".jar"
	embeddedMarker = "!/"
	fileScheme     = "file"
	jarURLPrefix   = "jar:"
)

// embeddedExtensions are the archive types that may contain nested jars
var embeddedExtensions = []string{".jar", ".war", ".ear"}

// runtimeSchemes are module-system pseudo locations with no file on disk
var runtimeSchemes = map[string]bool{
	"jrt":  true,
	"jmod": true,
}

// locationResolver implements LocationResolver with pure string handling
type locationResolver struct{}

// NewLocationResolver creates a new location resolver
func NewLocationResolver() services.LocationResolver {
	return &locationResolver{}
}

// Resolve normalizes raw into an ArchiveLocation
func (r *locationResolver) Resolve(raw string) (entities.ArchiveLocation, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return entities.ArchiveLocation{}, ErrNoLocation
	}

	filePath, err := decodeLocationPath(trimmed)
	if err != nil {
		return entities.ArchiveLocation{}, err
	}

	outer, entry, nested := splitEmbedded(filePath)

	outer = path.Clean(outer)
	if !path.IsAbs(outer) {
		return entities.ArchiveLocation{}, fmt.Errorf("%w: %q is not an absolute path", ErrUnresolvableLocation, raw)
	}

	if !nested {
		if !hasExtension(outer, jarExtension) {
			return entities.ArchiveLocation{}, fmt.Errorf("%w: %s", ErrUnsupportedLocation, raw)
		}
		return entities.ArchiveLocation{
			Raw:      raw,
			Identity: fileScheme + ":" + outer,
			Path:     outer,
		}, nil
	}

	if strings.Contains(entry, embeddedMarker) {
		// only one level of nesting can be read from disk
		return entities.ArchiveLocation{}, fmt.Errorf("%w: multi-level nesting in %s", ErrUnsupportedLocation, raw)
	}

	entry = path.Clean(strings.TrimSuffix(entry, "/"))
	if entry == "." || entry == ".." || strings.HasPrefix(entry, "../") || path.IsAbs(entry) {
		return entities.ArchiveLocation{}, fmt.Errorf("%w: bad entry path in %s", ErrUnresolvableLocation, raw)
	}
	if !hasExtension(entry, jarExtension) {
		return entities.ArchiveLocation{}, fmt.Errorf("%w: %s", ErrUnsupportedLocation, raw)
	}

	return entities.ArchiveLocation{
		Raw:      raw,
		Identity: fileScheme + ":" + outer + embeddedMarker + entry,
		Path:     outer,
		Entry:    entry,
	}, nil
}

// decodeLocationPath strips the URL syntax from raw and returns a decoded
// filesystem path that may still contain "!/" nesting markers
func decodeLocationPath(raw string) (string, error) {
	s := raw
	if len(s) >= len(jarURLPrefix) && strings.EqualFold(s[:len(jarURLPrefix)], jarURLPrefix) {
		s = strings.TrimSuffix(s[len(jarURLPrefix):], embeddedMarker)
	}

	scheme := schemeOf(s)
	switch {
	case scheme == "":
		return s, nil
	case runtimeSchemes[scheme]:
		return "", fmt.Errorf("%w: %s", ErrRuntimeModule, raw)
	case scheme != fileScheme:
		return "", fmt.Errorf("%w: scheme %q in %s", ErrUnsupportedLocation, scheme, raw)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnresolvableLocation, err)
	}
	if u.Opaque != "" {
		return "", fmt.Errorf("%w: relative file URL %s", ErrUnresolvableLocation, raw)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote host %q in %s", ErrUnresolvableLocation, u.Host, raw)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: empty path in %s", ErrUnresolvableLocation, raw)
	}
	return u.Path, nil
}

// schemeOf returns the lowercase URL scheme of s, or "" when s has none.
// Single letters are treated as Windows drive letters, not schemes.
func schemeOf(s string) string {
	i := strings.IndexByte(s, ':')
	if i < 2 {
		return ""
	}
	for j := 0; j < i; j++ {
		c := s[j]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return ""
		}
	}
	return strings.ToLower(s[:i])
}

// splitEmbedded splits "outer.war!/inner.jar" at the first archive boundary
func splitEmbedded(p string) (outer, entry string, nested bool) {
	best := -1
	bestExt := ""
	for _, ext := range embeddedExtensions {
		idx := strings.Index(p, ext+embeddedMarker)
		if idx > 0 && (best < 0 || idx < best) {
			best = idx
			bestExt = ext
		}
	}
	if best < 0 {
		return p, "", false
	}
	return p[:best+len(bestExt)], p[best+len(bestExt)+len(embeddedMarker):], true
}

func hasExtension(p, ext string) bool {
	return len(p) > len(ext) && strings.EqualFold(p[len(p)-len(ext):], ext)
}
