package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/voxel-world/internal/config"
	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// delta is one queued edit. A revert removes the stored entry so the cell
// falls back to generated terrain.
type delta struct {
	value  uint16
	revert bool
}

type batch map[chunk.Index]map[chunk.BlockIndex]delta

func (b batch) put(idx chunk.Index, bi chunk.BlockIndex, d delta) {
	mods, ok := b[idx]
	if !ok {
		mods = make(map[chunk.BlockIndex]delta)
		b[idx] = mods
	}
	mods[bi] = d
}

// Service buffers block edits and writes them to a Backend from a
// background flush loop, so the edit path never waits on I/O.
//
// Edits that are queued or being flushed are still visible to
// LoadModifications and ApplyDelta.
type Service struct {
	backend Backend
	cfg     config.PersistenceConfig
	log     *slog.Logger

	mu       sync.Mutex
	pending  batch
	inflight batch

	flushMu sync.Mutex // one flush at a time

	started atomic.Bool
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewService creates a Service writing to backend.
func NewService(backend Backend, cfg config.PersistenceConfig, log *slog.Logger) *Service {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.FlushWorkers <= 0 {
		cfg.FlushWorkers = 1
	}
	return &Service{
		backend:  backend,
		cfg:      cfg,
		log:      log,
		pending:  make(batch),
		inflight: make(batch),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Open creates the configured backend and wraps it in a Service.
func Open(cfg config.PersistenceConfig, log *slog.Logger) (*Service, error) {
	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	log.Info("persistence opened", "backend", cfg.Backend, "dir", cfg.Dir, "compression", cfg.Compression)
	return NewService(backend, cfg, log), nil
}

// AddDelta queues b as the stored block at bi of chunk idx.
func (s *Service) AddDelta(idx chunk.Index, bi chunk.BlockIndex, b block.Block) {
	s.mu.Lock()
	s.pending.put(idx, bi, delta{value: b.Value})
	s.mu.Unlock()
}

// RevertDelta queues removal of the stored entry at bi of chunk idx.
func (s *Service) RevertDelta(idx chunk.Index, bi chunk.BlockIndex) {
	s.mu.Lock()
	s.pending.put(idx, bi, delta{revert: true})
	s.mu.Unlock()
}

// overlays snapshots the in-flight and pending edits for idx, oldest first.
func (s *Service) overlays(idx chunk.Index) []map[chunk.BlockIndex]delta {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[chunk.BlockIndex]delta
	for _, b := range []batch{s.inflight, s.pending} {
		if mods, ok := b[idx]; ok {
			out = append(out, maps.Clone(mods))
		}
	}
	return out
}

// LoadModifications returns every edit of chunk idx: stored ones with queued
// ones on top. The overlays are snapshotted before the backend read so an
// edit flushed concurrently is seen in at least one of the two.
func (s *Service) LoadModifications(ctx context.Context, idx chunk.Index) (map[chunk.BlockIndex]block.Block, error) {
	overlays := s.overlays(idx)

	out := make(map[chunk.BlockIndex]block.Block)
	rec, err := s.backend.Load(ctx, idx)
	if err == nil && rec != nil {
		var stored map[chunk.BlockIndex]block.Block
		if stored, err = rec.Modifications(); err == nil {
			out = stored
		}
	}

	for _, mods := range overlays {
		for bi, d := range mods {
			if d.revert {
				delete(out, bi)
				continue
			}
			out[bi] = block.Block{Value: d.value}
		}
	}
	return out, err
}

// ApplyDelta writes the edits of chunk idx over blocks and returns it. A
// read or decode failure is logged and the stored part is skipped.
func (s *Service) ApplyDelta(idx chunk.Index, blocks []block.Block) []block.Block {
	mods, err := s.LoadModifications(context.Background(), idx)
	if err != nil {
		s.log.Warn("ignoring stored modifications", "chunk", idx, "error", err)
	}
	for bi, b := range mods {
		blocks[chunk.Offset(bi)] = b
	}
	return blocks
}

// Start runs the flush loop until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) {
	s.started.Store(true)
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.cfg.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if err := s.Flush(ctx); err != nil {
					s.log.Error("flush modifications", "error", err)
				}
			}
		}
	}()
	s.log.Info("persistence started", "interval", s.cfg.FlushInterval)
}

// Flush writes every queued edit to the backend. Chunks are written in
// parallel; chunks that fail are queued again.
func (s *Service) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	work := s.pending
	s.pending = make(batch)
	s.inflight = work
	s.mu.Unlock()

	if len(work) == 0 {
		return nil
	}

	var (
		failedMu sync.Mutex
		failed   = make(batch)
	)
	var g errgroup.Group
	g.SetLimit(s.cfg.FlushWorkers)
	for idx, mods := range work {
		g.Go(func() error {
			if err := s.saveChunk(ctx, idx, mods); err != nil {
				failedMu.Lock()
				failed[idx] = mods
				failedMu.Unlock()
				return err
			}
			return nil
		})
	}
	err := g.Wait()

	s.mu.Lock()
	for idx, mods := range failed {
		for bi, d := range mods {
			if _, newer := s.pending[idx][bi]; !newer {
				s.pending.put(idx, bi, d)
			}
		}
	}
	s.inflight = make(batch)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("flush %d of %d chunks: %w", len(failed), len(work), err)
	}
	s.log.Debug("flushed modifications", "chunks", len(work))
	return nil
}

func (s *Service) saveChunk(ctx context.Context, idx chunk.Index, mods map[chunk.BlockIndex]delta) error {
	rec, err := s.backend.Load(ctx, idx)
	if err != nil {
		s.log.Warn("replacing unreadable record", "chunk", idx, "error", err)
		rec = nil
	}
	if rec == nil {
		rec = NewRecord(idx)
	}
	for bi, d := range mods {
		if d.revert {
			delete(rec.BlockModifications, bi.Key())
			continue
		}
		rec.BlockModifications[bi.Key()] = d.value
	}
	if err := s.backend.Save(ctx, rec); err != nil {
		return fmt.Errorf("save chunk %s: %w", idx, err)
	}
	return nil
}

// DeleteChunkData drops every stored and queued edit of chunk idx.
func (s *Service) DeleteChunkData(ctx context.Context, idx chunk.Index) error {
	s.mu.Lock()
	delete(s.pending, idx)
	s.mu.Unlock()

	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	if err := s.backend.Delete(ctx, idx); err != nil {
		return err
	}
	s.log.Info("deleted chunk data", "chunk", idx)
	return nil
}

// ModifiedChunkCount returns the number of chunks with stored edits.
func (s *Service) ModifiedChunkCount(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

// SaveSize returns the bytes the backend uses.
func (s *Service) SaveSize(ctx context.Context) (int64, error) {
	return s.backend.Size(ctx)
}

// Close stops the flush loop, waiting at most the shutdown timeout, then
// performs a final flush and closes the backend.
func (s *Service) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.stop) })

	if s.started.Load() {
		timer := time.NewTimer(s.cfg.ShutdownTimeout)
		defer timer.Stop()
		select {
		case <-s.stopped:
		case <-timer.C:
			s.log.Warn("flush loop did not stop in time", "timeout", s.cfg.ShutdownTimeout)
		}
	}

	flushErr := s.Flush(ctx)
	closeErr := s.backend.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("close persistence: %w", err)
	}
	s.log.Info("persistence stopped")
	return nil
}
