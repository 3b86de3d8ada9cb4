package entities

// DependencyDetectedEvent is the name of the emitted telemetry event
const DependencyDetectedEvent = "dependency-detected"

// Attribute keys carried by a DetectionEvent
const (
	AttrPackageType        = "package.type"
	AttrPackagePath        = "package.path"
	AttrPackageLocation    = "package.location"
	AttrPackageName        = "package.name"
	AttrPackageVersion     = "package.version"
	AttrPackageVendor      = "package.vendor"
	AttrPackageVendorID    = "package.vendor.id"
	AttrPackageDescription = "package.description"
	AttrPackageSignature   = "package.signature"
	AttrServiceInstanceID  = "service.instance.id"

	// AttrChecksumPrefix is followed by the lowercase algorithm name, e.g. "package.checksum.sha512"
	AttrChecksumPrefix = "package.checksum."

	// AttrProvenancePrefix namespaces raw pom.properties pairs
	AttrProvenancePrefix = "package.provenance."
)

// Signature states
const (
	SignatureVerified = "verified"
	SignatureInvalid  = "invalid"
)

// DetectionEvent is one "dependency-detected" emission. Sinks stamp the
// emission time themselves.
type DetectionEvent struct {
	Name       string
	Attributes map[string]string
}
