package entities

import "time"

// SBOM represents a CycloneDX Software Bill of Materials built from detection events
type SBOM struct {
	BOMFormat    string      `json:"bomFormat"`   // "CycloneDX"
	SpecVersion  string      `json:"specVersion"` // "1.5"
	SerialNumber string      `json:"serialNumber,omitempty"`
	Version      int         `json:"version"`
	Metadata     Metadata    `json:"metadata"`
	Components   []Component `json:"components"`
}

// Component represents one detected archive
type Component struct {
	Type       string     `json:"type"` // "library"
	BOMRef     string     `json:"bom-ref,omitempty"`
	Group      string     `json:"group,omitempty"`
	Name       string     `json:"name"`
	Version    string     `json:"version,omitempty"`
	Publisher  string     `json:"publisher,omitempty"`
	PURL       string     `json:"purl,omitempty"`
	Hashes     []Hash     `json:"hashes,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// Hash represents a cryptographic hash of a component
type Hash struct {
	Algorithm string `json:"alg"` // "SHA-1", "SHA-512", etc.
	Value     string `json:"content"`
}

// Property is a free-form name/value pair
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Metadata contains SBOM generation metadata
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Tools     []Tool    `json:"tools,omitempty"`
}

// Tool represents a tool used to generate the SBOM
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}
