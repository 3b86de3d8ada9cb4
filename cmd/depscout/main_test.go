package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces"
)

// writeTestJar writes a jar with a manifest vendor and one pom.properties
func writeTestJar(t *testing.T, dir, name, group, artifact, version string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\r\nImplementation-Vendor: Acme\r\n\r\n",
		"META-INF/maven/" + group + "/" + artifact + "/pom.properties": "groupId=" + group + "\nartifactId=" + artifact + "\nversion=" + version + "\n",
	}
	for entryName, content := range files {
		w, err := zw.Create(entryName)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0600))
	return p
}

func testDetectionConfig() entities.DetectionConfig {
	cfg := entities.DefaultDetectionConfig()
	cfg.RateLimit = 100
	cfg.Burst = 10
	cfg.PollInterval = 10 * time.Millisecond
	cfg.LogLevel = "error"
	return cfg
}

func TestExecuteDetect_JSON(t *testing.T) {
	dir := t.TempDir()
	a := writeTestJar(t, dir, "b-9.jar", "a", "b", "9")
	c := writeTestJar(t, dir, "d-1.jar", "c", "d", "1")

	in := strings.NewReader(strings.Join([]string{
		a,
		"file:" + a,
		"jrt:/java.base",
		"jar:file:" + c + "!/",
		"",
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, executeDetect(context.Background(), testDetectionConfig(), "json", false, in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	byName := map[string]map[string]string{}
	for _, line := range lines {
		var event struct {
			Name       string            `json:"event.name"`
			Attributes map[string]string `json:"attributes"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		assert.Equal(t, entities.DependencyDetectedEvent, event.Name)
		byName[event.Attributes[entities.AttrPackageName]] = event.Attributes
	}

	require.Contains(t, byName, "a:b")
	assert.Equal(t, "9", byName["a:b"][entities.AttrPackageVersion])
	assert.Equal(t, "Acme", byName["a:b"][entities.AttrPackageVendor])
	assert.Len(t, byName["a:b"]["package.checksum.sha1"], 40)
	assert.Len(t, byName["a:b"]["package.checksum.sha512"], 128)
	require.Contains(t, byName, "c:d")
}

func TestExecuteDetect_CycloneDX(t *testing.T) {
	dir := t.TempDir()
	a := writeTestJar(t, dir, "b-9.jar", "a", "b", "9")
	var out bytes.Buffer

	require.NoError(t, executeDetect(context.Background(), testDetectionConfig(), "cyclonedx", false, strings.NewReader(a+"\n"), &out))

	var bom entities.SBOM
	require.NoError(t, json.Unmarshal(out.Bytes(), &bom))
	assert.Equal(t, "CycloneDX", bom.BOMFormat)
	require.Len(t, bom.Components, 1)
	assert.Equal(t, "pkg:maven/a/b@9", bom.Components[0].PURL)
	assert.Len(t, bom.Components[0].Hashes, 2)
}

func TestExecuteDetect_UnknownFormat(t *testing.T) {
	err := executeDetect(context.Background(), testDetectionConfig(), "xml", false, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestExecuteDetect_BadAlgorithm(t *testing.T) {
	cfg := testDetectionConfig()
	cfg.Algorithms = []string{"MD5"}
	err := executeDetect(context.Background(), cfg, "json", false, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestExecuteInspect(t *testing.T) {
	a := writeTestJar(t, t.TempDir(), "b-9.jar", "a", "b", "9")
	var out bytes.Buffer

	require.NoError(t, executeInspect(context.Background(), testDetectionConfig(), a, false, &out))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "dependency-detected\n"))
	assert.Contains(t, text, "package.name")
	assert.Contains(t, text, "a:b")
	assert.NotContains(t, text, entities.AttrServiceInstanceID)
}

func TestExecuteInspect_Skipped(t *testing.T) {
	err := executeInspect(context.Background(), testDetectionConfig(), "jrt:/java.base", false, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestFeedLocations(t *testing.T) {
	var got []string
	err := feedLocations(strings.NewReader("a\nb\r\n\nc"), func(s string) { got = append(got, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestNewSink(t *testing.T) {
	for _, format := range []string{"json", "log", "cyclonedx"} {
		sink, flush, err := newSink(format, &bytes.Buffer{}, &interfaces.NoOpLogger{})
		require.NoError(t, err, format)
		assert.NotNil(t, sink)
		assert.NoError(t, flush())
	}
}

func TestStopTimeoutOrDefault(t *testing.T) {
	assert.Equal(t, time.Second, stopTimeoutOrDefault(time.Second))
	assert.Equal(t, entities.DefaultDetectionConfig().StopTimeout, stopTimeoutOrDefault(0))
}
