// Package config implements the process-wide settings of spec §6:
// page size, data directory, buffer pool size, replacer K, and the
// checkpoint flusher's interval. Engine construction always takes an
// explicit Config value; there is no package-level singleton.
//
// Grounded on the teacher's flag-based configuration in
// _examples/SimonWaldherr-tinySQL/cmd/server/main.go (a flat set of
// named settings gathered before opening a database), generalized from
// command-line flags to a struct loadable from either Go code or a YAML
// file, per SPEC_FULL.md's "external, declarative configuration" note.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/disk"
)

// Config holds the settings an Engine is opened with.
type Config struct {
	// DataDir is the directory holding the engine's on-disk file(s).
	DataDir string `yaml:"data_dir"`

	// PageSizeBytes is the fixed page size for the disk manager and
	// buffer pool. Defaults to disk.DefaultPageSize if zero.
	PageSizeBytes int `yaml:"page_size_bytes"`

	// PoolSize is the number of frames the buffer pool holds.
	PoolSize int `yaml:"pool_size"`

	// ReplacerK is the K in LRU-K eviction.
	ReplacerK int `yaml:"replacer_k"`

	// CheckpointInterval is how often the background flusher calls
	// FlushAllPages. Zero disables the flusher.
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// UnmarshalYAML decodes Config from YAML, parsing checkpoint_interval as a
// Go duration string (e.g. "30s") since yaml.v3 has no built-in mapping from
// a scalar string to time.Duration.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DataDir            string `yaml:"data_dir"`
		PageSizeBytes      int    `yaml:"page_size_bytes"`
		PoolSize           int    `yaml:"pool_size"`
		ReplacerK          int    `yaml:"replacer_k"`
		CheckpointInterval string `yaml:"checkpoint_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.DataDir = raw.DataDir
	c.PageSizeBytes = raw.PageSizeBytes
	c.PoolSize = raw.PoolSize
	c.ReplacerK = raw.ReplacerK
	if raw.CheckpointInterval != "" {
		d, err := time.ParseDuration(raw.CheckpointInterval)
		if err != nil {
			return fmt.Errorf("config: parsing checkpoint_interval %q: %w", raw.CheckpointInterval, dberr.InvalidData)
		}
		c.CheckpointInterval = d
	}
	return nil
}

// DataFilePath is the single on-disk file the disk manager opens within
// DataDir.
func (c Config) DataFilePath() string {
	return c.DataDir + string(os.PathSeparator) + "goheap.db"
}

// Validate checks that Config's fields are usable, filling in documented
// defaults for zero values that have one.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is required: %w", dberr.InvalidInput)
	}
	if c.PageSizeBytes == 0 {
		c.PageSizeBytes = disk.DefaultPageSize
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("config: pool_size must be positive: %w", dberr.InvalidInput)
	}
	if c.ReplacerK <= 0 {
		return fmt.Errorf("config: replacer_k must be positive: %w", dberr.InvalidInput)
	}
	return nil
}

// Load reads a Config from a YAML file at path.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, dberr.IO)
	}
	var c Config
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, dberr.InvalidData)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
