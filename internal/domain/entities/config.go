package entities

import (
	"fmt"
	"time"
)

// DetectionConfig holds engine configuration
type DetectionConfig struct {
	RateLimit         float64       // archives inspected per second
	Burst             int           // token bucket size
	PollInterval      time.Duration // queue wait before re-checking for shutdown
	StopTimeout       time.Duration // bounded wait for the worker on Stop
	Algorithms        []string      // checksum algorithms, e.g. "SHA-1", "SHA-512"
	OuterArchiveCache int           // open outer archives kept for nested lookups
	LogLevel          string
	KeyringPath       string // armored public keys for detached .asc checks
}

// DefaultDetectionConfig returns the defaults used when no config file is given
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		RateLimit:         10,
		Burst:             1,
		PollInterval:      100 * time.Millisecond,
		StopTimeout:       2 * time.Second,
		Algorithms:        []string{"SHA-1", "SHA-512"},
		OuterArchiveCache: 16,
		LogLevel:          "info",
	}
}

// Validate checks the numeric settings. Algorithm names are validated by the
// hasher when it is constructed.
func (c DetectionConfig) Validate() error {
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", c.RateLimit)
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1, got %d", c.Burst)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("stop timeout must not be negative, got %s", c.StopTimeout)
	}
	if len(c.Algorithms) == 0 {
		return fmt.Errorf("at least one checksum algorithm is required")
	}
	if c.OuterArchiveCache < 1 {
		return fmt.Errorf("outer archive cache must hold at least 1 archive, got %d", c.OuterArchiveCache)
	}
	return nil
}
