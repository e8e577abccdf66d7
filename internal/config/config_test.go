package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultConfig()
	if *cfg != *def {
		t.Errorf("got %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	data := []byte(`
world:
  seed: 42
  terrain: flat
persistence:
  backend: sqlite
  compression: zstd
  flush_interval: 500ms
log_level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Seed != 42 || cfg.World.Terrain != "flat" {
		t.Errorf("world = %+v", cfg.World)
	}
	if cfg.World.Apothem != 8 {
		t.Errorf("apothem = %d, want default 8", cfg.World.Apothem)
	}
	if cfg.Persistence.Backend != "sqlite" || cfg.Persistence.Compression != "zstd" {
		t.Errorf("persistence = %+v", cfg.Persistence)
	}
	if cfg.Persistence.FlushInterval != 500*time.Millisecond {
		t.Errorf("flush interval = %v", cfg.Persistence.FlushInterval)
	}
	if cfg.Persistence.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want default", cfg.Persistence.ShutdownTimeout)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("world: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMergeKeepsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.World.Seed = 7
	cfg.Persistence.Backend = "memory"

	fromFile := DefaultConfig()
	fromFile.World.Seed = 99
	fromFile.World.Apothem = 3
	fromFile.Persistence.Backend = "sqlite"

	Merge(cfg, fromFile, map[string]bool{"seed": true})

	if cfg.World.Seed != 7 {
		t.Errorf("seed = %d, explicit flag should win", cfg.World.Seed)
	}
	if cfg.World.Apothem != 3 {
		t.Errorf("apothem = %d, file value should apply", cfg.World.Apothem)
	}
	if cfg.Persistence.Backend != "sqlite" {
		t.Errorf("backend = %q, file value should apply", cfg.Persistence.Backend)
	}
}
