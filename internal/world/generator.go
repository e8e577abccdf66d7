package world

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
	"github.com/OCharnyshevich/voxel-world/internal/world/gen"
	"github.com/OCharnyshevich/voxel-world/internal/world/light"
	"github.com/OCharnyshevich/voxel-world/internal/world/mesh"
	"github.com/OCharnyshevich/voxel-world/internal/world/region"
)

// Generator keeps the region populated around the viewer. Chunks are
// generated, lit, published and meshed on a worker pool; eviction happens
// synchronously on the caller of Update.
type Generator struct {
	region *region.Region
	chunks *gen.ChunkGenerator
	light  *light.System
	mesher *mesh.Mesher
	pool   pond.Pool
	log    *slog.Logger

	// build meshes one chunk. The caller holds the shared lattice lock.
	build func(c *chunk.Chunk)

	center atomic.Pointer[chunk.Index]
	failed atomic.Bool // a task failed since the last Update
	rescan atomic.Bool // a dropped task's index is back in range

	mu      sync.Mutex
	pending map[chunk.Index]struct{} // queued or running
	tasks   sync.WaitGroup
}

// NewGenerator creates a Generator with the given number of workers. Zero
// workers means one per CPU.
func NewGenerator(r *region.Region, chunks *gen.ChunkGenerator, ls *light.System, m *mesh.Mesher, workers int, log *slog.Logger) *Generator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g := &Generator{
		region:  r,
		chunks:  chunks,
		light:   ls,
		mesher:  m,
		pool:    pond.NewPool(workers),
		log:     log,
		pending: make(map[chunk.Index]struct{}),
	}
	g.build = func(c *chunk.Chunk) { m.Build(c) }
	g.center.Store(&chunk.Index{})
	return g
}

// Center returns the chunk index the region is currently kept around.
func (g *Generator) Center() chunk.Index { return *g.center.Load() }

// Update recenters the region on viewer: chunks that fell out of range are
// evicted before returning and missing chunks are queued nearest first.
func (g *Generator) Update(viewer mgl32.Vec3) {
	center := chunk.WorldToChunkCoords(viewer)
	g.center.Store(&center)
	g.failed.Store(false)
	g.rescan.Store(false)

	evicted := 0
	for _, idx := range g.region.CollectIndexesForRemoval(center) {
		if g.evict(idx) {
			evicted++
		}
	}

	queued := 0
	for _, idx := range g.region.CollectIndexesForGeneration(center) {
		if g.schedule(idx) {
			queued++
		}
	}
	if evicted > 0 || queued > 0 {
		g.log.Debug("region updated", "center", center, "evicted", evicted, "queued", queued)
	}
}

// evict hides the chunk from the renderer, unlinks and disposes it, then
// drops its mesh.
func (g *Generator) evict(idx chunk.Index) bool {
	c := g.region.Get(idx)
	if c == nil {
		return false
	}
	c.SetState(chunk.Unloaded)
	removed := g.region.RemoveChunk(idx) != nil
	g.mesher.Remove(idx)
	return removed
}

func (g *Generator) claim(idx chunk.Index) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[idx]; ok {
		return false
	}
	g.pending[idx] = struct{}{}
	return true
}

func (g *Generator) release(idx chunk.Index) {
	g.mu.Lock()
	delete(g.pending, idx)
	g.mu.Unlock()
}

// Failed reports whether a chunk task failed since the last Update, leaving
// an index for the next Update to queue again.
func (g *Generator) Failed() bool { return g.failed.Load() }

// NeedsUpdate reports whether Update has to run again even though the
// viewer stayed in the same chunk: a task failed, or a task gave up an
// index that came back in range while it still held it.
func (g *Generator) NeedsUpdate() bool { return g.failed.Load() || g.rescan.Load() }

// Pending returns the number of queued or running chunk tasks.
func (g *Generator) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *Generator) schedule(idx chunk.Index) bool {
	if !g.claim(idx) {
		return false
	}
	g.tasks.Add(1)
	if err := g.pool.Go(func() {
		res := taskFailed
		defer func() {
			g.settle(idx, res)
			g.tasks.Done()
		}()
		res = g.run(idx)
	}); err != nil {
		g.tasks.Done()
		g.release(idx)
		g.log.Warn("schedule chunk", "chunk", idx, "error", err)
		return false
	}
	return true
}

type taskResult uint8

const (
	taskDone taskResult = iota
	taskDropped
	taskFailed
)

// settle releases idx once its task is over. An Update that ran while the
// task still held idx could not queue it, so a dropped index that is in
// range again, or a failed one, makes NeedsUpdate true.
func (g *Generator) settle(idx chunk.Index, res taskResult) {
	g.release(idx)
	switch res {
	case taskDropped:
		if g.region.InRange(g.Center(), idx) {
			g.rescan.Store(true)
		}
	case taskFailed:
		g.failed.Store(true)
	}
}

// run is one chunk task. A task whose chunk left the range before it started
// is dropped. A failed task leaves the index unloaded so the next Update
// queues it again.
func (g *Generator) run(idx chunk.Index) taskResult {
	if !g.region.InRange(g.Center(), idx) {
		g.log.Debug("chunk task cancelled", "chunk", idx)
		return taskDropped
	}

	c, err := g.generate(idx)
	if err != nil {
		g.log.Error("generate chunk", "chunk", idx, "error", err)
		return taskFailed
	}

	var touched []*chunk.Chunk
	if !g.region.Publish(c, func(c *chunk.Chunk) { touched = g.light.Stitch(c) }) {
		return taskDone
	}
	if !g.region.InRange(g.Center(), idx) {
		g.evict(idx)
		g.log.Debug("chunk evicted after publish", "chunk", idx)
		return taskDropped
	}

	if err := g.meshPublished(c, touched, true); err != nil {
		g.log.Error("mesh chunk", "chunk", idx, "error", err)
		g.evict(idx)
		return taskFailed
	}
	c.CompareAndSwapState(chunk.Generated, chunk.Ready)
	g.log.Debug("chunk ready", "chunk", idx)
	return taskDone
}

// generate builds and lights an unpublished chunk.
func (g *Generator) generate(idx chunk.Index) (c *chunk.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	c = g.chunks.GenerateChunk(idx)
	g.light.Light(c)
	return c, nil
}

// remesh builds c under the shared lattice lock. The lock is taken per
// chunk so a pending edit frame waits for one build at most.
func (g *Generator) remesh(c *chunk.Chunk) {
	g.region.View(func() { g.build(c) })
}

// meshPublished builds c and, with neighbours set, rebuilds every published
// chunk whose faces or light changed when c was linked.
func (g *Generator) meshPublished(c *chunk.Chunk, touched []*chunk.Chunk, neighbours bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	g.remesh(c)
	if !neighbours {
		return nil
	}

	var dirty []*chunk.Chunk
	g.region.View(func() {
		seen := map[*chunk.Chunk]struct{}{c: {}}
		add := func(n *chunk.Chunk) {
			if _, ok := seen[n]; n != nil && !ok {
				seen[n] = struct{}{}
				dirty = append(dirty, n)
			}
		}
		for _, t := range touched {
			add(t)
		}
		for _, f := range block.Faces {
			add(c.Neighbor(f))
		}
	})
	for _, n := range dirty {
		if s := n.State(); s == chunk.Generated || s == chunk.Ready {
			g.remesh(n)
		}
	}
	return nil
}

// PostToMesher rebuilds c's mesh on the worker pool.
func (g *Generator) PostToMesher(c *chunk.Chunk) {
	g.tasks.Add(1)
	if err := g.pool.Go(func() {
		defer g.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				g.log.Error("mesh chunk", "chunk", c.Index, "error", fmt.Errorf("panic: %v", r))
			}
		}()
		g.remesh(c)
	}); err != nil {
		g.tasks.Done()
		g.log.Warn("schedule mesh", "chunk", c.Index, "error", err)
	}
}

// BulkGenerate fills the whole radius around position before returning.
// Chunks are generated and lit in parallel, published one by one, then
// meshed in parallel, so every chunk is meshed once with all its neighbours
// present.
func (g *Generator) BulkGenerate(ctx context.Context, position mgl32.Vec3) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	center := chunk.WorldToChunkCoords(position)
	g.center.Store(&center)
	for _, idx := range g.region.CollectIndexesForRemoval(center) {
		g.evict(idx)
	}

	var idxs []chunk.Index
	for _, idx := range g.region.CollectIndexesForGeneration(center) {
		if g.claim(idx) {
			idxs = append(idxs, idx)
		}
	}
	defer func() {
		for _, idx := range idxs {
			g.release(idx)
		}
	}()

	generated := make([]*chunk.Chunk, len(idxs))
	group := g.pool.NewGroupContext(ctx)
	for i, idx := range idxs {
		group.Submit(func() {
			c, err := g.generate(idx)
			if err != nil {
				g.log.Error("generate chunk", "chunk", idx, "error", err)
				g.failed.Store(true)
				return
			}
			generated[i] = c
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("generate chunks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generate chunks: %w", err)
	}

	published := make([]*chunk.Chunk, 0, len(generated))
	defer func() {
		if err == nil {
			return
		}
		// Published chunks that never became Ready are evicted so Update
		// queues them again.
		for _, c := range published {
			if c.State() != chunk.Ready {
				g.evict(c.Index)
			}
		}
	}()
	for _, c := range generated {
		if c == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("publish chunks: %w", err)
		}
		if g.region.Publish(c, func(c *chunk.Chunk) { g.light.Stitch(c) }) {
			published = append(published, c)
		}
	}

	// Chunks loaded before this pass need new meshes where they border it.
	var stale []*chunk.Chunk
	g.region.View(func() {
		seen := make(map[*chunk.Chunk]struct{})
		for _, c := range published {
			for _, f := range block.Faces {
				n := c.Neighbor(f)
				if n == nil || n.State() != chunk.Ready {
					continue
				}
				if _, ok := seen[n]; !ok {
					seen[n] = struct{}{}
					stale = append(stale, n)
				}
			}
		}
	})

	group = g.pool.NewGroupContext(ctx)
	for _, c := range stale {
		group.Submit(func() {
			if err := g.meshPublished(c, nil, false); err != nil {
				g.log.Error("mesh chunk", "chunk", c.Index, "error", err)
			}
		})
	}
	for _, c := range published {
		group.Submit(func() {
			if err := g.meshPublished(c, nil, false); err != nil {
				g.log.Error("mesh chunk", "chunk", c.Index, "error", err)
				return
			}
			c.CompareAndSwapState(chunk.Generated, chunk.Ready)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("mesh chunks: %w", err)
	}

	g.log.Info("bulk generation done", "center", center, "chunks", len(published), "failed", len(idxs)-len(published))
	return nil
}

// Wait blocks until every queued chunk and mesh task has finished.
func (g *Generator) Wait() { g.tasks.Wait() }

// Close stops the worker pool after running the queued tasks.
func (g *Generator) Close() {
	g.pool.StopAndWait()
}
