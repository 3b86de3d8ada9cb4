package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ochairo/depscout/internal/domain-adapters/gateways"
	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces"
	ports "github.com/ochairo/depscout/internal/domain/interfaces/gateways"
	"github.com/ochairo/depscout/internal/external-adapters/yaml"
	"github.com/ochairo/depscout/internal/external-adapters/zaplog"
)

// commonFlags are shared by every subcommand that builds an inspector
type commonFlags struct {
	configPath string
	algorithms []string
	logLevel   string
	keyring    string
	devLogs    bool
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	fs.StringSliceVar(&c.algorithms, "algorithms", nil, "Checksum algorithms (SHA-1, SHA-256, SHA-512, BLAKE3)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.keyring, "keyring", "", "Armored public keyring for detached .asc signature checks")
	fs.BoolVar(&c.devLogs, "dev-logs", false, "Human-readable console logs")
}

// loadConfig layers file values over defaults and explicitly set flags over both
func (c *commonFlags) loadConfig(fs *pflag.FlagSet) (entities.DetectionConfig, error) {
	cfg := entities.DefaultDetectionConfig()
	if c.configPath != "" {
		parsed, err := yaml.NewConfigParser().ParseFile(c.configPath)
		if err != nil {
			return entities.DetectionConfig{}, err
		}
		cfg = parsed
	}

	if fs.Changed("algorithms") {
		cfg.Algorithms = c.algorithms
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if fs.Changed("keyring") {
		cfg.KeyringPath = c.keyring
	}
	return cfg, nil
}

// buildInspector wires hasher, optional signature verifier and inspector.
// An unknown checksum algorithm is a configuration error and fails here.
func buildInspector(cfg entities.DetectionConfig, logger interfaces.Logger) (ports.ArchiveInspector, error) {
	hasher, err := gateways.NewContentHasher(cfg.Algorithms...)
	if err != nil {
		return nil, fmt.Errorf("invalid checksum configuration: %w", err)
	}

	var verifier ports.SignatureVerifier
	if strings.TrimSpace(cfg.KeyringPath) != "" {
		v, err := gateways.NewGPGVerifier(cfg.KeyringPath)
		if err != nil {
			return nil, err
		}
		logger.Info("signature checks enabled", interfaces.F("keys", v.GetKeyringSize()))
		verifier = v
	}

	inspector, err := gateways.NewArchiveInspector(hasher, verifier, logger, gateways.ArchiveInspectorConfig{
		OuterArchiveCache: cfg.OuterArchiveCache,
	})
	if err != nil {
		return nil, err
	}
	return inspector, nil
}

func newLogger(cfg entities.DetectionConfig, development bool) (*zaplog.Logger, error) {
	logger, err := zaplog.NewLogger(cfg.LogLevel, development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
