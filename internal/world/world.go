// Package world ties the voxel engine together: a region of chunks kept
// around the viewer by a background Generator, and a ModificationSystem
// applying block edits once per frame.
package world

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/config"
	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
	"github.com/OCharnyshevich/voxel-world/internal/world/gen"
	"github.com/OCharnyshevich/voxel-world/internal/world/light"
	"github.com/OCharnyshevich/voxel-world/internal/world/mesh"
	"github.com/OCharnyshevich/voxel-world/internal/world/region"
)

// Persistence overlays stored edits on generated chunks and records new ones.
type Persistence interface {
	gen.Overlay
	DeltaStore
}

// Spawn search bounds.
const (
	spawnSearchTop = 255
	spawnFallbackY = 50
)

// World is the loaded voxel world.
type World struct {
	meta      block.MetadataProvider
	region    *region.Region
	light     *light.System
	chunks    *gen.ChunkGenerator
	mesher    *mesh.Mesher
	generator *Generator
	mods      *ModificationSystem
	log       *slog.Logger

	center chunk.Index
}

// NewTerrain builds the terrain source named by cfg.
func NewTerrain(cfg config.WorldConfig) (gen.Terrain, error) {
	switch cfg.Terrain {
	case "noise", "":
		return gen.NewTerrainGenerator(cfg.Seed), nil
	case "flat":
		return gen.NewFlatTerrain(cfg.FlatHeight), nil
	default:
		return nil, fmt.Errorf("unknown terrain %q", cfg.Terrain)
	}
}

// New creates a World. store may be nil to keep edits in the chunks only.
func New(cfg *config.Config, meta block.MetadataProvider, store Persistence, log *slog.Logger) (*World, error) {
	terrain, err := NewTerrain(cfg.World)
	if err != nil {
		return nil, err
	}

	var (
		overlay gen.Overlay
		deltas  DeltaStore
	)
	if store != nil {
		overlay, deltas = store, store
	}
	chunks, err := gen.NewChunkGenerator(cfg.World.Seed, terrain, meta, overlay)
	if err != nil {
		return nil, fmt.Errorf("create chunk generator: %w", err)
	}

	r := region.New(cfg.World.Apothem, log.With("component", "region"))
	ls := light.New(meta)
	atlas := mesh.GridAtlas{Columns: cfg.Meshing.AtlasColumns, Rows: cfg.Meshing.AtlasRows}
	m := mesh.New(meta, ls, atlas, mesh.Options{
		MaxVertices:      cfg.Meshing.MaxVertices,
		TintGrid:         cfg.Meshing.TintGrid,
		LightBlockFactor: cfg.Meshing.LightBlockFactor,
	}, log.With("component", "mesher"))

	w := &World{
		meta:   meta,
		region: r,
		light:  ls,
		chunks: chunks,
		mesher: m,
		log:    log,
	}
	w.generator = NewGenerator(r, chunks, ls, m, cfg.Generation.Workers, log.With("component", "generator"))
	w.mods = NewModificationSystem(r, meta, ls, deltas, chunks, w.generator.PostToMesher, log.With("component", "modifications"))
	return w, nil
}

// FindSafeSpawnPosition returns a point two blocks above the highest solid
// block of the origin column, or a fixed height if the column is empty.
func (w *World) FindSafeSpawnPosition() mgl32.Vec3 {
	top, _ := chunk.SplitWorld(0, spawnSearchTop, 0)
	bottom, _ := chunk.SplitWorld(0, 0, 0)
	for cy := top.Y; cy >= bottom.Y; cy-- {
		c := w.chunks.GenerateChunk(chunk.Index{Y: cy})
		for y := chunk.Size - 1; y >= 0; y-- {
			if !c.Block(0, y, 0).IsEmpty() {
				_, wy, _ := chunk.WorldBlock(c.Index, chunk.BlockIndex{Y: y})
				return mgl32.Vec3{0, float32(wy + 2), 0}
			}
		}
	}
	w.log.Warn("no solid block at spawn column, using fallback height", "y", spawnFallbackY)
	return mgl32.Vec3{0, spawnFallbackY, 0}
}

// Init generates the whole radius around position before returning. A zero
// position means a new world and spawns at FindSafeSpawnPosition. It
// returns the position the viewer starts at.
func (w *World) Init(ctx context.Context, position mgl32.Vec3) (mgl32.Vec3, error) {
	if position == (mgl32.Vec3{}) {
		position = w.FindSafeSpawnPosition()
		w.log.Info("new world, spawning at safe position", "position", position)
	}
	if err := w.generator.BulkGenerate(ctx, position); err != nil {
		return position, fmt.Errorf("bulk generate: %w", err)
	}
	w.center = chunk.WorldToChunkCoords(position)
	return position, nil
}

// Update runs one frame: queued edits are applied and, when the viewer
// entered another chunk or the generator asks for it, the region is
// recentered.
func (w *World) Update(viewer mgl32.Vec3) {
	w.mods.Update()

	if idx := chunk.WorldToChunkCoords(viewer); idx != w.center || w.generator.NeedsUpdate() {
		w.center = idx
		w.generator.Update(viewer)
	}
}

// Locate returns the loaded chunk and local index of a world block.
func (w *World) Locate(wx, wy, wz int) (*chunk.Chunk, chunk.BlockIndex) {
	idx, bi := chunk.SplitWorld(wx, wy, wz)
	return w.region.Get(idx), bi
}

// Block returns the block at a world position and whether its chunk is
// loaded.
func (w *World) Block(wx, wy, wz int) (block.Block, bool) {
	c, bi := w.Locate(wx, wy, wz)
	if c == nil {
		return block.Air, false
	}
	return c.Block(bi.X, bi.Y, bi.Z), true
}

// RemoveBlock queues removal of a world block. It reports whether the
// block's chunk is loaded.
func (w *World) RemoveBlock(wx, wy, wz int) bool {
	c, bi := w.Locate(wx, wy, wz)
	if c == nil {
		return false
	}
	w.mods.Remove(bi, c)
	return true
}

// PlaceBlock queues placement of b against the world block the viewer hit
// while looking along dir.
func (w *World) PlaceBlock(b block.Block, wx, wy, wz int, dir mgl32.Vec3) bool {
	c, bi := w.Locate(wx, wy, wz)
	if c == nil {
		return false
	}
	w.mods.Place(b, bi, dir, c)
	return true
}

// Stats is a snapshot of world counters.
type Stats struct {
	Loaded  int
	Active  int
	Pending int
	Meshes  int
	Edits   int
}

// Stats returns current counters.
func (w *World) Stats() Stats {
	return Stats{
		Loaded:  w.region.Len(),
		Active:  len(w.region.ActiveChunks()),
		Pending: w.generator.Pending(),
		Meshes:  w.mesher.Len(),
		Edits:   w.mods.Pending(),
	}
}

// Meta returns the block property table.
func (w *World) Meta() block.MetadataProvider { return w.meta }

// Region returns the loaded chunks.
func (w *World) Region() *region.Region { return w.region }

// Mesher returns the mesh caches read by the renderer.
func (w *World) Mesher() *mesh.Mesher { return w.mesher }

// Generator returns the chunk scheduler.
func (w *World) Generator() *Generator { return w.generator }

// Modifications returns the edit queue.
func (w *World) Modifications() *ModificationSystem { return w.mods }

// ChunkGenerator returns the terrain fill used for new chunks.
func (w *World) ChunkGenerator() *gen.ChunkGenerator { return w.chunks }

// Close waits for running tasks and stops the worker pool.
func (w *World) Close() {
	w.generator.Close()
}
