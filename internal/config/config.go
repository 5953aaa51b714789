// Package config provides configuration management for dirmerge.
// It supports YAML and TOML configuration files, environment variables,
// and sensible defaults. CLI flags override environment variables, which
// override the file, which overrides defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/dirmerge/internal/merge"
	"github.com/klauern/dirmerge/internal/util"
)

// Config represents the complete dirmerge configuration.
type Config struct {
	// Merge configures default merge behavior
	Merge MergeConfig `yaml:"merge" toml:"merge"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output" toml:"output"`
}

// MergeConfig holds merge pass settings.
type MergeConfig struct {
	// Workers is the per-path worker pool size
	Workers int `yaml:"workers" toml:"workers"`
	// Algorithm is the content digest algorithm (sha256, sha512, md5)
	Algorithm string `yaml:"algorithm" toml:"algorithm"`
}

// OutputConfig holds display settings.
type OutputConfig struct {
	// NoColor disables colored terminal output
	NoColor bool `yaml:"no_color" toml:"no_color"`
	// Verbose logs every classification decision
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			Workers:   merge.DefaultWorkers,
			Algorithm: string(merge.AlgorithmSHA256),
		},
	}
}

// Load reads configuration from the standard location, applies environment
// overrides, and validates the result. A missing file is not an error; the
// defaults apply.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from path, or probes the standard candidate
// locations when path is empty.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range util.ConfigFileCandidates() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	// #nosec G304 - path comes from the config dir or an explicit flag
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse TOML config %q: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %q: %w", path, err)
		}
	}
	return nil
}

// applyEnvironment overlays DIRMERGE_* environment variables.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("DIRMERGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Merge.Workers = n
		}
	}
	if v := os.Getenv("DIRMERGE_ALGORITHM"); v != "" {
		c.Merge.Algorithm = v
	}
	if v := os.Getenv("DIRMERGE_NO_COLOR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Output.NoColor = b
		}
	}
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Merge.Workers < 1 || c.Merge.Workers > merge.MaxWorkers {
		return fmt.Errorf("merge.workers must be between 1 and %d, got %d", merge.MaxWorkers, c.Merge.Workers)
	}
	if _, err := merge.ParseAlgorithm(c.Merge.Algorithm); err != nil {
		return fmt.Errorf("merge.algorithm: %w", err)
	}
	return nil
}

// Algorithm returns the configured digest algorithm.
func (c *Config) Algorithm() merge.Algorithm {
	return merge.Algorithm(c.Merge.Algorithm)
}
