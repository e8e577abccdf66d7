package chunk

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

// State is a chunk's lifecycle stage.
type State int32

const (
	Unloaded State = iota
	Generating
	Generated
	Ready
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Generating:
		return "generating"
	case Generated:
		return "generated"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// MaxLight is the brightest value of either light channel.
const MaxLight = 15

// LightValue is the pair of light channels stored for one block.
type LightValue struct {
	Sky, Block uint8
}

// Shade packs both channels into a single scalar as sky + k*block.
func (l LightValue) Shade(k float32) float32 {
	return float32(l.Sky) + k*float32(l.Block)
}

// NoSurface marks a column that has no solid block at any height.
const NoSurface = math.MinInt32

// Chunk is a Size³ block volume with derived light and neighbour links.
//
// Blocks are written by the generation task before the chunk is published
// and afterwards only by edits. Light and neighbour links are written by the
// owner of the region's exclusive lock.
type Chunk struct {
	Index    Index
	Position mgl32.Vec3

	blocks    [Volume]block.Block
	light     [Volume]uint8 // sky<<4 | block
	neighbors [block.FaceCount]*Chunk
	surface   [Size * Size]int32

	sourcesMu    sync.Mutex
	lightSources map[BlockIndex]struct{}

	state    atomic.Int32
	disposed atomic.Bool
}

// New creates an empty, Unloaded chunk at idx.
func New(idx Index) *Chunk {
	c := &Chunk{
		Index:        idx,
		Position:     idx.Origin(),
		lightSources: make(map[BlockIndex]struct{}),
	}
	for i := range c.surface {
		c.surface[i] = NoSurface
	}
	return c
}

// Block returns the block at local coordinates.
func (c *Chunk) Block(x, y, z int) block.Block { return c.blocks[offset(x, y, z)] }

// SetBlock writes the block at local coordinates.
func (c *Chunk) SetBlock(x, y, z int, b block.Block) { c.blocks[offset(x, y, z)] = b }

// Blocks exposes the raw block buffer, ordered y-major then z then x.
func (c *Chunk) Blocks() []block.Block { return c.blocks[:] }

// BlockAt converts a raw buffer offset back to local coordinates.
func BlockAt(i int) BlockIndex {
	return BlockIndex{X: i % Size, Z: (i / Size) % Size, Y: i / (Size * Size)}
}

// Offset converts local coordinates into a raw buffer offset.
func Offset(b BlockIndex) int { return offset(b.X, b.Y, b.Z) }

// Light returns both light channels at local coordinates.
func (c *Chunk) Light(x, y, z int) LightValue {
	v := c.light[offset(x, y, z)]
	return LightValue{Sky: v >> 4, Block: v & 0xF}
}

// SkyLight returns the sky channel at local coordinates.
func (c *Chunk) SkyLight(x, y, z int) uint8 { return c.light[offset(x, y, z)] >> 4 }

// BlockLight returns the block channel at local coordinates.
func (c *Chunk) BlockLight(x, y, z int) uint8 { return c.light[offset(x, y, z)] & 0xF }

// SetSkyLight writes the sky channel at local coordinates.
func (c *Chunk) SetSkyLight(x, y, z int, v uint8) {
	i := offset(x, y, z)
	c.light[i] = v<<4 | c.light[i]&0xF
}

// SetBlockLight writes the block channel at local coordinates.
func (c *Chunk) SetBlockLight(x, y, z int, v uint8) {
	i := offset(x, y, z)
	c.light[i] = c.light[i]&0xF0 | v&0xF
}

// ClearLight zeroes both channels everywhere.
func (c *Chunk) ClearLight() { clear(c.light[:]) }

// Neighbor returns the linked chunk across f, or nil.
func (c *Chunk) Neighbor(f block.Face) *Chunk { return c.neighbors[f] }

// SetNeighbor sets the link across f. Only the region calls this.
func (c *Chunk) SetNeighbor(f block.Face, n *Chunk) { c.neighbors[f] = n }

// State returns the lifecycle stage.
func (c *Chunk) State() State { return State(c.state.Load()) }

// SetState stores the lifecycle stage.
func (c *Chunk) SetState(s State) { c.state.Store(int32(s)) }

// CompareAndSwapState moves from old to s only if the chunk is still in old.
func (c *Chunk) CompareAndSwapState(old, s State) bool {
	return c.state.CompareAndSwap(int32(old), int32(s))
}

// Surface returns the first open world y of column (x,z).
func (c *Chunk) Surface(x, z int) int { return int(c.surface[z*Size+x]) }

// SetSurface records the first open world y of column (x,z).
func (c *Chunk) SetSurface(x, z, y int) { c.surface[z*Size+x] = int32(y) }

// AddLightSource records an emissive block position.
func (c *Chunk) AddLightSource(b BlockIndex) {
	c.sourcesMu.Lock()
	c.lightSources[b] = struct{}{}
	c.sourcesMu.Unlock()
}

// RemoveLightSource forgets an emissive block position.
func (c *Chunk) RemoveLightSource(b BlockIndex) {
	c.sourcesMu.Lock()
	delete(c.lightSources, b)
	c.sourcesMu.Unlock()
}

// LightSources returns a snapshot of all emissive block positions.
func (c *Chunk) LightSources() []BlockIndex {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	out := make([]BlockIndex, 0, len(c.lightSources))
	for b := range c.lightSources {
		out = append(out, b)
	}
	return out
}

// ScanLightSources rebuilds the light-source set from the block buffer.
func (c *Chunk) ScanLightSources(meta block.MetadataProvider) int {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	clear(c.lightSources)
	for i, b := range c.blocks {
		if !b.IsEmpty() && meta.IsLightSource(b) {
			c.lightSources[BlockAt(i)] = struct{}{}
		}
	}
	return len(c.lightSources)
}

// Dispose drops the chunk's references. The chunk must already be unlinked.
func (c *Chunk) Dispose() {
	c.disposed.Store(true)
	c.SetState(Unloaded)
	c.neighbors = [block.FaceCount]*Chunk{}
	c.sourcesMu.Lock()
	clear(c.lightSources)
	c.sourcesMu.Unlock()
}

// Disposed reports whether Dispose has run.
func (c *Chunk) Disposed() bool { return c.disposed.Load() }

// Digest hashes blocks and light so tests and tools can compare chunk states.
func (c *Chunk) Digest() uint64 {
	d := xxhash.New()
	var buf [2]byte
	for _, b := range c.blocks {
		binary.LittleEndian.PutUint16(buf[:], b.Value)
		d.Write(buf[:])
	}
	d.Write(c.light[:])
	return d.Sum64()
}

// Resolve follows neighbour links so that (x,y,z), which may lie up to one
// chunk outside c on each axis, addresses a block in a loaded chunk. It
// returns nil when the owning chunk is not linked.
func (c *Chunk) Resolve(x, y, z int) (*Chunk, int, int, int) {
	t := c
	switch {
	case x < 0:
		t, x = t.neighbors[block.XNeg], x+Size
	case x >= Size:
		t, x = t.neighbors[block.XPos], x-Size
	}
	if t == nil {
		return nil, 0, 0, 0
	}
	switch {
	case y < 0:
		t, y = t.neighbors[block.YNeg], y+Size
	case y >= Size:
		t, y = t.neighbors[block.YPos], y-Size
	}
	if t == nil {
		return nil, 0, 0, 0
	}
	switch {
	case z < 0:
		t, z = t.neighbors[block.ZNeg], z+Size
	case z >= Size:
		t, z = t.neighbors[block.ZPos], z-Size
	}
	if t == nil {
		return nil, 0, 0, 0
	}
	return t, x, y, z
}

// VisibleFaces returns the faces of the block at (x,y,z) that border an
// empty cell, a transparent cell of a different material, or an unlinked
// neighbour chunk.
func (c *Chunk) VisibleFaces(meta block.MetadataProvider, x, y, z int) block.FacesState {
	b := c.Block(x, y, z)
	if b.IsEmpty() {
		return 0
	}

	var fs block.FacesState
	for _, f := range block.Faces {
		dx, dy, dz := f.Offset()
		n, nx, ny, nz := c.Resolve(x+dx, y+dy, z+dz)
		if n == nil {
			fs = fs.Set(f)
			continue
		}
		nb := n.Block(nx, ny, nz)
		if nb.IsEmpty() || (nb != b && meta.IsTransparent(nb)) {
			fs = fs.Set(f)
		}
	}
	return fs
}
