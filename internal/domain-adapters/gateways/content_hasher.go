package gateways

import (
	"crypto/sha1" //nolint:gosec // G505: SHA-1 is an identity checksum here, matched against artifact indexes
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// Algorithm is a checksum algorithm name as it appears in configuration
type Algorithm string

// Supported checksum algorithms
const (
	AlgorithmSHA1   Algorithm = "SHA-1"
	AlgorithmSHA256 Algorithm = "SHA-256"
	AlgorithmSHA512 Algorithm = "SHA-512"
	AlgorithmBLAKE3 Algorithm = "BLAKE3"
)

// hashChunkSize is the read size used while streaming archives through a digest
const hashChunkSize = 8 * 1024

// ErrUnsupportedAlgorithm is a configuration error, not a per-archive failure
var ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")

// algorithmNames accepts both the legacy upper-case names and the OCI digest names
var algorithmNames = map[string]Algorithm{
	"sha-1":                AlgorithmSHA1,
	"sha1":                 AlgorithmSHA1,
	"sha-256":              AlgorithmSHA256,
	digest.SHA256.String(): AlgorithmSHA256,
	"sha-512":              AlgorithmSHA512,
	digest.SHA512.String(): AlgorithmSHA512,
	"blake3":               AlgorithmBLAKE3,
}

// ociAlgorithms maps to the go-digest registry
var ociAlgorithms = map[Algorithm]digest.Algorithm{
	AlgorithmSHA256: digest.SHA256,
	AlgorithmSHA512: digest.SHA512,
}

// ParseAlgorithm resolves a configured algorithm name
func ParseAlgorithm(name string) (Algorithm, error) {
	alg, ok := algorithmNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	if oci, isOCI := ociAlgorithms[alg]; isOCI && !oci.Available() {
		return "", fmt.Errorf("%w: %q not linked into this binary", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

// ContentHasher computes streaming checksums for archive content
type ContentHasher struct {
	algorithms []Algorithm
}

// NewContentHasher validates the configured algorithms up front so an unknown
// name fails at bootstrap instead of on every archive
func NewContentHasher(names ...string) (*ContentHasher, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: none configured", ErrUnsupportedAlgorithm)
	}

	seen := make(map[Algorithm]bool, len(names))
	algs := make([]Algorithm, 0, len(names))
	for _, name := range names {
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		if seen[alg] {
			continue
		}
		seen[alg] = true
		algs = append(algs, alg)
	}

	return &ContentHasher{algorithms: algs}, nil
}

// Algorithms returns the configured algorithms in configuration order
func (h *ContentHasher) Algorithms() []Algorithm {
	out := make([]Algorithm, len(h.algorithms))
	copy(out, h.algorithms)
	return out
}

// Hash streams r through alg and returns the lowercase hex digest
func (h *ContentHasher) Hash(r io.Reader, alg Algorithm) (string, error) {
	digester, err := newDigester(alg)
	if err != nil {
		return "", err
	}

	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(digester, r, buf); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}

	return hex.EncodeToString(digester.Sum(nil)), nil
}

// HashFile calculates the checksum of a file on disk
func (h *ContentHasher) HashFile(filePath string, alg Algorithm) (string, error) {
	//nolint:gosec // G304: filePath is an archive location reported by the observed process
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return h.Hash(f, alg)
}

func newDigester(alg Algorithm) (hash.Hash, error) {
	switch alg {
	case AlgorithmSHA1:
		//nolint:gosec // G401: see import
		return sha1.New(), nil
	case AlgorithmBLAKE3:
		return blake3.New(), nil
	}
	if oci, ok := ociAlgorithms[alg]; ok && oci.Available() {
		return oci.Hash(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
}
