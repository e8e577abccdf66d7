package blockdata_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCharnyshevich/voxel-world/pkg/blockdata"
)

func TestLoad_UnknownPack(t *testing.T) {
	_, err := blockdata.Load("nonexistent-pack")
	if !errors.Is(err, blockdata.ErrUnknownPack) {
		t.Fatalf("Load error = %v, want ErrUnknownPack", err)
	}
}

func TestRegisterAndLoad(t *testing.T) {
	called := false
	blockdata.Register("test-pack", func() (*blockdata.Pack, error) {
		called = true
		return &blockdata.Pack{Name: "test-pack"}, nil
	})

	p, err := blockdata.Load("test-pack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.Name != "test-pack" {
		t.Fatalf("Load returned %+v", p)
	}
	if !called {
		t.Fatal("factory function was not called")
	}
}

func TestDefaultPackRegistered(t *testing.T) {
	found := false
	for _, name := range blockdata.RegisteredPacks() {
		if name == blockdata.DefaultPackName {
			found = true
		}
	}
	if !found {
		t.Fatalf("default pack missing from %v", blockdata.RegisteredPacks())
	}

	p, err := blockdata.Load(blockdata.DefaultPackName)
	if err != nil {
		t.Fatalf("load default pack: %v", err)
	}
	if len(p.Blocks) == 0 {
		t.Fatal("default pack has no blocks")
	}
}

func TestParseRejectsBadPacks(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate", "blocks:\n  - name: stone\n  - name: stone\n"},
		{"dangling face", "blocks:\n  - name: grass\n    faces:\n      top: grass_top\n"},
		{"emission", "blocks:\n  - name: lamp\n    emission: 16\n"},
		{"air", "blocks:\n  - name: air\n"},
		{"syntax", "blocks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := blockdata.Parse([]byte(tt.data)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestResolvePrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	if err := os.WriteFile(path, []byte("name: custom\nblocks:\n  - name: stone\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := blockdata.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(file): %v", err)
	}
	if p.Name != "custom" {
		t.Errorf("pack name = %q, want custom", p.Name)
	}

	p, err = blockdata.Resolve(blockdata.DefaultPackName)
	if err != nil {
		t.Fatalf("Resolve(name): %v", err)
	}
	if p.Name != blockdata.DefaultPackName {
		t.Errorf("pack name = %q, want %q", p.Name, blockdata.DefaultPackName)
	}
}
