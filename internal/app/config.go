package app

import (
	"fmt"
	"time"

	"github.com/vk/patterngridgo/internal/artifact"
)

// DefaultDebounceInterval is the window over which graph change
// notifications are coalesced before subscribers are woken.
const DefaultDebounceInterval = 100 * time.Millisecond

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // optional extra modifier manifests (file or directory)

	LogFormat        string // "text" or "json"
	LogLevel         string // "debug", "info", "warn" or "error"
	Port             int    // HTTP API port for serve mode
	DebounceInterval time.Duration

	// Artifact configures S3 publishing of rendered files. An empty bucket
	// leaves uploads disabled.
	Artifact artifact.Config
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d is outside the valid range 0-65535", cfg.Port)
	}
	if cfg.DebounceInterval < 0 {
		return nil, fmt.Errorf("debounce interval cannot be negative, got %s", cfg.DebounceInterval)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}

	return &cfg, nil
}
