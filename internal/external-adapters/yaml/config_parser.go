// Package yaml provides YAML-based configuration parsing.
package yaml

import (
	"fmt"
	"os"
	"time"

	"github.com/ochairo/depscout/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw YAML structure. Pointer fields distinguish
// "not set" from zero so file values only override what they mention.
type yamlConfig struct {
	RateLimit         *float64      `yaml:"rate_limit"`
	Burst             *int          `yaml:"burst"`
	PollInterval      string        `yaml:"poll_interval"`
	StopTimeout       string        `yaml:"stop_timeout"`
	Algorithms        []string      `yaml:"algorithms"`
	OuterArchiveCache *int          `yaml:"outer_archive_cache"`
	Logging           yamlLogging   `yaml:"logging"`
	Signature         yamlSignature `yaml:"signature"`
}

type yamlLogging struct {
	Level string `yaml:"level"`
}

type yamlSignature struct {
	Keyring string `yaml:"keyring"`
}

// ConfigParser parses detection engine configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML config parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML config file on top of the defaults
func (p *ConfigParser) ParseFile(filePath string) (entities.DetectionConfig, error) {
	//nolint:gosec // G304: filePath is the operator-provided config path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return entities.DetectionConfig{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes on top of entities.DefaultDetectionConfig
func (p *ConfigParser) Parse(data []byte) (entities.DetectionConfig, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entities.DetectionConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := entities.DefaultDetectionConfig()
	if raw.RateLimit != nil {
		cfg.RateLimit = *raw.RateLimit
	}
	if raw.Burst != nil {
		cfg.Burst = *raw.Burst
	}
	if raw.OuterArchiveCache != nil {
		cfg.OuterArchiveCache = *raw.OuterArchiveCache
	}
	if len(raw.Algorithms) > 0 {
		cfg.Algorithms = raw.Algorithms
	}
	if raw.Logging.Level != "" {
		cfg.LogLevel = raw.Logging.Level
	}
	cfg.KeyringPath = raw.Signature.Keyring

	var err error
	if cfg.PollInterval, err = convertDuration("poll_interval", raw.PollInterval, cfg.PollInterval); err != nil {
		return entities.DetectionConfig{}, err
	}
	if cfg.StopTimeout, err = convertDuration("stop_timeout", raw.StopTimeout, cfg.StopTimeout); err != nil {
		return entities.DetectionConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return entities.DetectionConfig{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func convertDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}
