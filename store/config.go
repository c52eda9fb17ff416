package store

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

const (
	defaultBufferSize      = 100
	defaultToleranceWindow = 20
)

// Config holds store initialization parameters. BufferSize is the minimum
// retained timestamp span; ToleranceWindow is the hysteresis before a write
// triggers an automatic retention flush. Together they trade flush frequency
// against worst-case memory growth between flushes.
type Config struct {
	BufferSize      int64 `yaml:"buffer_size,omitempty"`
	ToleranceWindow int64 `yaml:"tolerance_window,omitempty"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:      defaultBufferSize,
		ToleranceWindow: defaultToleranceWindow,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.BufferSize > 0 {
		c.BufferSize = source.BufferSize
	}
	if source.ToleranceWindow > 0 {
		c.ToleranceWindow = source.ToleranceWindow
	}
}

// Validate reports configuration values the store cannot operate with.
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return ErrInvalidBufferSize
	}
	if c.ToleranceWindow < 0 {
		return ErrInvalidToleranceWindow
	}
	return nil
}

// LoadConfig reads a YAML config file, merges it with defaults, and returns
// the resulting Config. JSON files load too, YAML being a JSON superset.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
