package gateways

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHasher_KnownVectors(t *testing.T) {
	hasher, err := NewContentHasher("SHA-1", "SHA-256", "SHA-512", "BLAKE3")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		alg   Algorithm
		want  string
	}{
		{"sha1 empty", "", AlgorithmSHA1, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"sha1 abc", "abc", AlgorithmSHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256 empty", "", AlgorithmSHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"sha256 abc", "abc", AlgorithmSHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha512 abc", "abc", AlgorithmSHA512, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{"blake3 empty", "", AlgorithmBLAKE3, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hasher.Hash(strings.NewReader(tt.input), tt.alg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentHasher_Deterministic(t *testing.T) {
	hasher, err := NewContentHasher("SHA-512")
	require.NoError(t, err)

	content := strings.Repeat("archive bytes ", 4096)
	first, err := hasher.Hash(strings.NewReader(content), AlgorithmSHA512)
	require.NoError(t, err)
	second, err := hasher.Hash(strings.NewReader(content), AlgorithmSHA512)
	require.NoError(t, err)
	other, err := hasher.Hash(strings.NewReader(content+"!"), AlgorithmSHA512)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 128)
}

func TestContentHasher_HashFile(t *testing.T) {
	hasher, err := NewContentHasher("SHA-256")
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "lib.jar")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0600))

	got, err := hasher.HashFile(p, AlgorithmSHA256)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = hasher.HashFile(filepath.Join(t.TempDir(), "missing.jar"), AlgorithmSHA256)
	assert.Error(t, err)
}

func TestContentHasher_ReadFailure(t *testing.T) {
	hasher, err := NewContentHasher("SHA-1")
	require.NoError(t, err)

	boom := errors.New("disk gone")
	_, err = hasher.Hash(iotest.ErrReader(boom), AlgorithmSHA1)
	assert.ErrorIs(t, err, boom)
}

func TestNewContentHasher(t *testing.T) {
	t.Run("aliases and duplicates", func(t *testing.T) {
		hasher, err := NewContentHasher("sha1", "SHA-1", "sha256", "sha512", " blake3 ")
		require.NoError(t, err)
		assert.Equal(t, []Algorithm{AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512, AlgorithmBLAKE3}, hasher.Algorithms())
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := NewContentHasher("SHA-1", "MD5")
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("none configured", func(t *testing.T) {
		_, err := NewContentHasher()
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestContentHasher_UnsupportedAlgorithm(t *testing.T) {
	hasher, err := NewContentHasher("SHA-1")
	require.NoError(t, err)

	_, err = hasher.Hash(strings.NewReader("x"), Algorithm("CRC32"))
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
