package yaml

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/depscout/internal/domain/entities"
)

func TestConfigParser_Parse(t *testing.T) {
	data := []byte(`rate_limit: 25
burst: 5
poll_interval: 250ms
stop_timeout: 5s
algorithms:
  - SHA-256
  - BLAKE3
outer_archive_cache: 4
logging:
  level: debug
signature:
  keyring: /etc/depscout/keys.asc
`)

	cfg, err := NewConfigParser().Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 25.0, cfg.RateLimit)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.StopTimeout)
	assert.Equal(t, []string{"SHA-256", "BLAKE3"}, cfg.Algorithms)
	assert.Equal(t, 4, cfg.OuterArchiveCache)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/etc/depscout/keys.asc", cfg.KeyringPath)
}

func TestConfigParser_Parse_Defaults(t *testing.T) {
	cfg, err := NewConfigParser().Parse([]byte("burst: 3\n"))
	require.NoError(t, err)

	want := entities.DefaultDetectionConfig()
	want.Burst = 3
	assert.Equal(t, want, cfg)
}

func TestConfigParser_Parse_Empty(t *testing.T) {
	cfg, err := NewConfigParser().Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultDetectionConfig(), cfg)
}

func TestConfigParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "rate_limit: [1, 2"},
		{"bad duration", "poll_interval: soon\n"},
		{"zero rate", "rate_limit: 0\n"},
		{"negative burst", "burst: -1\n"},
		{"zero poll interval", "poll_interval: 0s\n"},
		{"negative stop timeout", "stop_timeout: -1s\n"},
		{"zero cache", "outer_archive_cache: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigParser().Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestConfigParser_ParseFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "depscout.yaml")
	require.NoError(t, os.WriteFile(p, []byte("rate_limit: 2.5\n"), 0600))

	cfg, err := NewConfigParser().ParseFile(p)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.RateLimit)

	_, err = NewConfigParser().ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
