package entities

// UnknownVersion is reported when an archive carries no provenance metadata
const UnknownVersion = "UNKNOWN"

// ArchiveMetadata is the result of introspecting one archive
type ArchiveMetadata struct {
	// Version is the provenance version, UnknownVersion when no provenance
	// file exists, or empty when provenance was ambiguous.
	Version string

	// Checksums maps algorithm name (e.g. "SHA-1") to lowercase hex digest
	Checksums map[string]string

	Title    string // Implementation-Title
	Vendor   string // Implementation-Vendor
	VendorID string // Implementation-Vendor-Id

	// Coordinate is "groupId:artifactId", empty when unknown
	Coordinate string

	// Provenance holds the raw pom.properties pairs
	Provenance map[string]string

	// Signature is "verified" or "invalid" when a detached signature was checked
	Signature string
}

// HasVersion reports whether a version attribute should be emitted
func (m *ArchiveMetadata) HasVersion() bool {
	return m.Version != ""
}
