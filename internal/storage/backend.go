package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/OCharnyshevich/voxel-world/internal/config"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// ErrUnknownBackend is returned by OpenBackend for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown persistence backend")

// Backend stores one Record per modified chunk.
type Backend interface {
	// Load returns the record for idx, or nil if the chunk has no edits.
	Load(ctx context.Context, idx chunk.Index) (*Record, error)
	// Save replaces the record for rec's chunk. An empty record deletes it.
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, idx chunk.Index) error
	// Count returns the number of chunks with stored edits.
	Count(ctx context.Context) (int, error)
	// Size returns the bytes used on disk.
	Size(ctx context.Context) (int64, error)
	Close() error
}

// OpenBackend creates the backend named by cfg.Backend.
func OpenBackend(cfg config.PersistenceConfig) (Backend, error) {
	codec, err := NewCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	var b Backend
	switch cfg.Backend {
	case "file", "":
		b, err = NewFileBackend(cfg.Dir, codec)
	case "sqlite":
		b, err = OpenSQLite(filepath.Join(cfg.Dir, "chunks.db"), codec)
	case "memory":
		b = NewMemoryBackend()
		codec.Close()
	default:
		codec.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		codec.Close()
		return nil, err
	}
	return b, nil
}
