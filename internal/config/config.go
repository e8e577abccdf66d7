package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the engine configuration.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Generation  GenerationConfig  `yaml:"generation"`
	Meshing     MeshingConfig     `yaml:"meshing"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Blocks      BlocksConfig      `yaml:"blocks"`
	LogLevel    string            `yaml:"log_level"` // debug, info, warn or error
}

// WorldConfig selects the terrain and the loaded radius.
type WorldConfig struct {
	Seed       int64  `yaml:"seed"`
	Apothem    int    `yaml:"apothem"`     // loaded radius in chunks
	Terrain    string `yaml:"terrain"`     // "noise" or "flat"
	FlatHeight int    `yaml:"flat_height"` // surface height for flat terrain
}

// GenerationConfig sizes the chunk worker pool.
type GenerationConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

// MeshingConfig tunes mesh output.
type MeshingConfig struct {
	MaxVertices      int     `yaml:"max_vertices"` // 0 = unlimited
	TintGrid         int     `yaml:"tint_grid"`
	LightBlockFactor float32 `yaml:"light_block_factor"`
	AtlasColumns     int     `yaml:"atlas_columns"`
	AtlasRows        int     `yaml:"atlas_rows"`
}

// PersistenceConfig selects where block edits are stored.
type PersistenceConfig struct {
	Backend         string        `yaml:"backend"` // "file", "sqlite" or "memory"
	Dir             string        `yaml:"dir"`
	Compression     string        `yaml:"compression"` // "none" or "zstd"
	FlushInterval   time.Duration `yaml:"flush_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	FlushWorkers    int           `yaml:"flush_workers"`
}

// BlocksConfig names the block definition pack.
type BlocksConfig struct {
	Pack string `yaml:"pack"` // registered pack name or YAML file path
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			Seed:       1337,
			Apothem:    8,
			Terrain:    "noise",
			FlatHeight: 40,
		},
		Meshing: MeshingConfig{
			TintGrid:         64,
			LightBlockFactor: 397,
			AtlasColumns:     16,
			AtlasRows:        16,
		},
		Persistence: PersistenceConfig{
			Backend:         "file",
			Dir:             "saves/default",
			Compression:     "none",
			FlushInterval:   2 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			FlushWorkers:    4,
		},
		Blocks:   BlocksConfig{Pack: "default"},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.World.Seed = fromFile.World.Seed
	}
	if !explicitFlags["apothem"] {
		cfg.World.Apothem = fromFile.World.Apothem
	}
	if !explicitFlags["terrain"] {
		cfg.World.Terrain = fromFile.World.Terrain
	}
	cfg.World.FlatHeight = fromFile.World.FlatHeight
	if !explicitFlags["workers"] {
		cfg.Generation.Workers = fromFile.Generation.Workers
	}
	cfg.Meshing = fromFile.Meshing
	if !explicitFlags["backend"] {
		cfg.Persistence.Backend = fromFile.Persistence.Backend
	}
	if !explicitFlags["save-dir"] {
		cfg.Persistence.Dir = fromFile.Persistence.Dir
	}
	if !explicitFlags["compression"] {
		cfg.Persistence.Compression = fromFile.Persistence.Compression
	}
	cfg.Persistence.FlushInterval = fromFile.Persistence.FlushInterval
	cfg.Persistence.ShutdownTimeout = fromFile.Persistence.ShutdownTimeout
	cfg.Persistence.FlushWorkers = fromFile.Persistence.FlushWorkers
	if !explicitFlags["blocks"] {
		cfg.Blocks.Pack = fromFile.Blocks.Pack
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
