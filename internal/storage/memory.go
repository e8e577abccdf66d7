package storage

import (
	"context"
	"maps"
	"sync"

	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// MemoryBackend keeps records in memory. Edits last for the process only.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[chunk.Index]map[string]uint16
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[chunk.Index]map[string]uint16)}
}

func (m *MemoryBackend) Load(_ context.Context, idx chunk.Index) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mods, ok := m.records[idx]
	if !ok {
		return nil, nil
	}
	rec := NewRecord(idx)
	maps.Copy(rec.BlockModifications, mods)
	return rec, nil
}

func (m *MemoryBackend) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(rec.BlockModifications) == 0 {
		delete(m.records, rec.Index())
		return nil
	}
	m.records[rec.Index()] = maps.Clone(rec.BlockModifications)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, idx chunk.Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, idx)
	return nil
}

func (m *MemoryBackend) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

// Size approximates the footprint as key bytes plus two bytes per value.
func (m *MemoryBackend) Size(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, mods := range m.records {
		for k := range mods {
			n += int64(len(k)) + 2
		}
	}
	return n, nil
}

func (m *MemoryBackend) Close() error { return nil }
