package gateways

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/depscout/internal/domain/interfaces/gateways"
)

func TestGPGVerifier(t *testing.T) {
	dir := t.TempDir()
	signer, err := openpgp.NewEntity("Release Bot", "", "release@example.com", nil)
	require.NoError(t, err)

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, signer.Serialize(w))
	require.NoError(t, w.Close())
	keyring := filepath.Join(dir, "keys.asc")
	require.NoError(t, os.WriteFile(keyring, pub.Bytes(), 0600))

	jar := filepath.Join(dir, "lib.jar")
	require.NoError(t, os.WriteFile(jar, []byte("jar bytes"), 0600))
	var sig bytes.Buffer
	require.NoError(t, openpgp.ArmoredDetachSign(&sig, signer, bytes.NewReader([]byte("jar bytes")), nil))
	require.NoError(t, os.WriteFile(jar+".asc", sig.Bytes(), 0600))

	verifier, err := NewGPGVerifier(keyring)
	require.NoError(t, err)
	assert.Equal(t, 1, verifier.GetKeyringSize())

	assert.NoError(t, verifier.VerifyDetachedSignature(jar, jar+".asc"))

	require.NoError(t, os.WriteFile(jar, []byte("tampered"), 0600))
	err = verifier.VerifyDetachedSignature(jar, jar+".asc")
	assert.ErrorIs(t, err, gateways.ErrSignatureMismatch)

	err = verifier.VerifyDetachedSignature(jar, filepath.Join(dir, "missing.asc"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, gateways.ErrSignatureMismatch)
}

func TestNewGPGVerifier_BadKeyring(t *testing.T) {
	_, err := NewGPGVerifier(filepath.Join(t.TempDir(), "none.asc"))
	assert.Error(t, err)
}
