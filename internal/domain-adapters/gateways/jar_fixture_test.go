package gateways

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// jarEntry is one file of a synthesized archive
type jarEntry struct {
	name   string
	data   []byte
	method uint16
}

func fileEntry(name, data string) jarEntry {
	return jarEntry{name: name, data: []byte(data), method: zip.Deflate}
}

func storedEntry(name string, data []byte) jarEntry {
	return jarEntry{name: name, data: data, method: zip.Store}
}

func deflatedEntry(name string, data []byte) jarEntry {
	return jarEntry{name: name, data: data, method: zip.Deflate}
}

func manifestEntry(lines ...string) jarEntry {
	body := "Manifest-Version: 1.0\r\n" + strings.Join(lines, "\r\n")
	if len(lines) > 0 {
		body += "\r\n"
	}
	return fileEntry("META-INF/MANIFEST.MF", body+"\r\n")
}

func pomEntry(group, artifact, version string) jarEntry {
	return fileEntry(
		"META-INF/maven/"+group+"/"+artifact+"/pom.properties",
		"#Generated by Maven\ngroupId="+group+"\nartifactId="+artifact+"\nversion="+version+"\n",
	)
}

// buildJar returns the bytes of a zip archive holding entries
func buildJar(t *testing.T, entries ...jarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeJar writes a synthesized archive to dir/name and returns its path
func writeJar(t *testing.T, dir, name string, entries ...jarEntry) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buildJar(t, entries...), 0600))
	return p
}

// openZip reads archive bytes back as a zip.Reader
func openZip(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}
