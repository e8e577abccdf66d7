package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// FileBackend stores each chunk's record as chunks/chunk_X_Y_Z.json (or
// .json.zst) under a save directory.
type FileBackend struct {
	dir    string
	chunks string
	codec  *Codec
}

// NewFileBackend creates a FileBackend rooted at dir, creating
// subdirectories as needed.
func NewFileBackend(dir string, codec *Codec) (*FileBackend, error) {
	chunks := filepath.Join(dir, "chunks")
	if err := os.MkdirAll(chunks, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", chunks, err)
	}
	return &FileBackend{dir: dir, chunks: chunks, codec: codec}, nil
}

func (f *FileBackend) ext() string {
	if f.codec.Compressed() {
		return ".json.zst"
	}
	return ".json"
}

func (f *FileBackend) path(idx chunk.Index) string {
	name := fmt.Sprintf("chunk_%d_%d_%d%s", idx.X, idx.Y, idx.Z, f.ext())
	return filepath.Join(f.chunks, name)
}

// Load reads the record for idx. A missing file means no edits.
func (f *FileBackend) Load(_ context.Context, idx chunk.Index) (*Record, error) {
	data, err := os.ReadFile(f.path(idx))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chunk %s: %w", idx, err)
	}
	rec, err := f.codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode chunk %s: %w", idx, err)
	}
	return rec, nil
}

// Save writes rec atomically, or removes the file when rec is empty.
func (f *FileBackend) Save(ctx context.Context, rec *Record) error {
	if len(rec.BlockModifications) == 0 {
		return f.Delete(ctx, rec.Index())
	}
	data, err := f.codec.Marshal(rec)
	if err != nil {
		return err
	}
	return atomicWrite(f.path(rec.Index()), data)
}

// Delete removes the record for idx. A missing file is not an error.
func (f *FileBackend) Delete(_ context.Context, idx chunk.Index) error {
	if err := os.Remove(f.path(idx)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete chunk %s: %w", idx, err)
	}
	return nil
}

// Count returns the number of chunk files.
func (f *FileBackend) Count(_ context.Context) (int, error) {
	entries, err := os.ReadDir(f.chunks)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "chunk_") && strings.HasSuffix(e.Name(), f.ext()) {
			n++
		}
	}
	return n, nil
}

// Size sums the sizes of every file in the save directory.
func (f *FileBackend) Size(_ context.Context) (int64, error) {
	var total int64
	err := filepath.WalkDir(f.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure save directory: %w", err)
	}
	return total, nil
}

// Close releases the codec.
func (f *FileBackend) Close() error {
	f.codec.Close()
	return nil
}

// atomicWrite writes data using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
