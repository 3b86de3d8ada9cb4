package services

import (
	"strings"

	"github.com/ochairo/depscout/internal/domain/entities"
)

const packageTypeJar = "jar"

// BuildDetectionEvent assembles the flat attribute set for one archive.
// Pure business logic - no I/O
func BuildDetectionEvent(loc entities.ArchiveLocation, md *entities.ArchiveMetadata, instanceID string) entities.DetectionEvent {
	attrs := map[string]string{
		entities.AttrPackageType:     packageTypeJar,
		entities.AttrPackagePath:     loc.Name(),
		entities.AttrPackageLocation: loc.Identity,
	}
	if instanceID != "" {
		attrs[entities.AttrServiceInstanceID] = instanceID
	}

	if md != nil {
		for alg, sum := range md.Checksums {
			attrs[ChecksumAttribute(alg)] = sum
		}

		// provenance first so dedicated keys below always win
		for k, v := range md.Provenance {
			attrs[entities.AttrProvenancePrefix+k] = v
		}

		putIfSet(attrs, entities.AttrPackageVendor, md.Vendor)
		putIfSet(attrs, entities.AttrPackageVendorID, md.VendorID)
		putIfSet(attrs, entities.AttrPackageDescription, describe(md.Title, md.Vendor))
		putIfSet(attrs, entities.AttrPackageName, md.Coordinate)
		putIfSet(attrs, entities.AttrPackageSignature, md.Signature)
		if md.HasVersion() {
			attrs[entities.AttrPackageVersion] = md.Version
		}
	}

	return entities.DetectionEvent{
		Name:       entities.DependencyDetectedEvent,
		Attributes: attrs,
	}
}

// ChecksumAttribute maps an algorithm name to its attribute key,
// e.g. "SHA-512" -> "package.checksum.sha512"
func ChecksumAttribute(algorithm string) string {
	name := strings.ToLower(strings.ReplaceAll(algorithm, "-", ""))
	return entities.AttrChecksumPrefix + name
}

// describe renders "title" or "title by vendor"
func describe(title, vendor string) string {
	if title == "" {
		return ""
	}
	if vendor == "" {
		return title
	}
	return title + " by " + vendor
}

func putIfSet(attrs map[string]string, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}
