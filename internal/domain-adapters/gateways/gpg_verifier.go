package gateways

import (
	"errors"
	"fmt"

	"github.com/ochairo/depscout/internal/domain/interfaces/gateways"
	"github.com/ochairo/depscout/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter to implement SignatureVerifier
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a verifier loaded with the keys in keyringPath
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier(keyringPath string) (*gpgVerifier, error) {
	v := gpg.NewVerifier()
	if err := v.ImportKeyFromFile(keyringPath); err != nil {
		return nil, fmt.Errorf("failed to import GPG keyring: %w", err)
	}
	return &gpgVerifier{verifier: v}, nil
}

// VerifyDetachedSignature verifies sigPath against filePath
func (g *gpgVerifier) VerifyDetachedSignature(filePath, sigPath string) error {
	err := g.verifier.VerifySignatureFromFile(filePath, sigPath)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gpg.ErrBadSignature):
		return fmt.Errorf("%w: %w", gateways.ErrSignatureMismatch, err)
	default:
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
}

// GetKeyringSize returns the number of keys loaded
func (g *gpgVerifier) GetKeyringSize() int {
	return g.verifier.GetKeyringSize()
}
