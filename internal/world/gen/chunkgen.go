package gen

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// Overlay applies stored block modifications to a freshly generated chunk.
type Overlay interface {
	ApplyDelta(idx chunk.Index, blocks []block.Block) []block.Block
}

// ColumnIndex identifies a vertical stack of chunks.
type ColumnIndex struct{ X, Z int }

const maxCachedColumns = 4096

// ChunkGenerator turns chunk indexes into filled chunks: terrain, trees,
// then stored edits on top.
type ChunkGenerator struct {
	seed    int64
	terrain Terrain
	palette *Palette
	meta    block.MetadataProvider
	overlay Overlay

	mu      sync.Mutex
	columns map[ColumnIndex]*TerrainData
	flight  singleflight.Group
}

// NewChunkGenerator creates a ChunkGenerator. overlay may be nil.
func NewChunkGenerator(seed int64, terrain Terrain, meta block.MetadataProvider, overlay Overlay) (*ChunkGenerator, error) {
	palette, err := NewPalette(meta)
	if err != nil {
		return nil, fmt.Errorf("create palette: %w", err)
	}
	return &ChunkGenerator{
		seed:    seed,
		terrain: terrain,
		palette: palette,
		meta:    meta,
		overlay: overlay,
		columns: make(map[ColumnIndex]*TerrainData),
	}, nil
}

// Terrain returns the terrain source.
func (g *ChunkGenerator) Terrain() Terrain { return g.terrain }

// TerrainData returns the heightmap of a chunk column. Vertically stacked
// chunks share one computation even when generated concurrently.
func (g *ChunkGenerator) TerrainData(col ColumnIndex) *TerrainData {
	g.mu.Lock()
	td, ok := g.columns[col]
	g.mu.Unlock()
	if ok {
		return td
	}

	key := fmt.Sprintf("%d,%d", col.X, col.Z)
	v, _, _ := g.flight.Do(key, func() (any, error) {
		td := g.terrain.GenerateTerrainData(chunk.Index{X: col.X, Z: col.Z}.Origin())
		g.mu.Lock()
		if len(g.columns) >= maxCachedColumns {
			clear(g.columns)
		}
		g.columns[col] = td
		g.mu.Unlock()
		return td, nil
	})
	return v.(*TerrainData)
}

// GenerateChunk builds the chunk at idx. The returned chunk is Generated,
// unlinked and unlit.
func (g *ChunkGenerator) GenerateChunk(idx chunk.Index) *chunk.Chunk {
	c := chunk.New(idx)
	c.SetState(chunk.Generating)

	td := g.TerrainData(ColumnIndex{X: idx.X, Z: idx.Z})
	ox, oy, oz := chunk.WorldBlock(idx, chunk.BlockIndex{})

	trees := g.treesNear(ox, oz, chunk.Size, chunk.Size)

	blocks := c.Blocks()
	for i := range blocks {
		b := chunk.BlockAt(i)
		wx, wy, wz := ox+b.X, oy+b.Y, oz+b.Z
		h, biome := td.Heights[b.X][b.Z], td.Biomes[b.X][b.Z]
		v := g.palette.Fill(h, wy, biome, CellRNG(g.seed, wx, wy, wz))
		if v.IsEmpty() && len(trees) > 0 {
			v = g.treeBlock(trees, wx, wy, wz)
		}
		blocks[i] = v
	}

	if g.overlay != nil {
		if out := g.overlay.ApplyDelta(idx, blocks); len(out) == len(blocks) {
			copy(blocks, out)
		}
	}

	c.ScanLightSources(g.meta)
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			c.SetSurface(x, z, g.surface(td.Heights[x][z], trees, ox+x, oz+z))
		}
	}

	c.SetState(chunk.Generated)
	return c
}

// BaseBlock returns the block generation places at a world cell, ignoring
// stored edits.
func (g *ChunkGenerator) BaseBlock(wx, wy, wz int) block.Block {
	h, biome := g.terrain.Column(wx, wz)
	v := g.palette.Fill(h, wy, biome, CellRNG(g.seed, wx, wy, wz))
	if !v.IsEmpty() {
		return v
	}
	return g.treeBlock(g.treesNear(wx, wz, 1, 1), wx, wy, wz)
}

// SurfaceAt returns the first world y above which column (wx, wz) is open.
func (g *ChunkGenerator) SurfaceAt(wx, wz int) int {
	h, _ := g.terrain.Column(wx, wz)
	return g.surface(h, g.treesNear(wx, wz, 1, 1), wx, wz)
}

// surface lifts the terrain height over a trunk rooted in the column.
// Leaves are transparent and do not count.
func (g *ChunkGenerator) surface(h int, trees []tree, wx, wz int) int {
	for _, t := range trees {
		if t.x == wx && t.z == wz {
			return max(h, t.y+t.trunk)
		}
	}
	return h
}
