package world

import (
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
	"github.com/OCharnyshevich/voxel-world/internal/world/light"
	"github.com/OCharnyshevich/voxel-world/internal/world/region"
)

// Axis is one of the three world axes.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// DominantAxis returns the axis along which v has the largest magnitude.
// Ties go to X, then Y.
func DominantAxis(v mgl32.Vec3) Axis {
	ax, ay, az := math.Abs(float64(v.X())), math.Abs(float64(v.Y())), math.Abs(float64(v.Z()))
	switch {
	case ax >= ay && ax >= az:
		return AxisX
	case ay >= az:
		return AxisY
	default:
		return AxisZ
	}
}

// placementFaces returns, most preferred first, the faces of a hit block
// that point back towards a viewer looking along dir.
func placementFaces(dir mgl32.Vec3) []block.Face {
	facing := func(a Axis) block.Face {
		neg := dir[a] > 0
		switch a {
		case AxisX:
			if neg {
				return block.XNeg
			}
			return block.XPos
		case AxisY:
			if neg {
				return block.YNeg
			}
			return block.YPos
		default:
			if neg {
				return block.ZNeg
			}
			return block.ZPos
		}
	}

	first := DominantAxis(dir)
	out := []block.Face{facing(first)}
	rest := []Axis{AxisX, AxisY, AxisZ}
	rest = append(rest[:first], rest[first+1:]...)
	if math.Abs(float64(dir[rest[1]])) > math.Abs(float64(dir[rest[0]])) {
		rest[0], rest[1] = rest[1], rest[0]
	}
	for _, a := range rest {
		out = append(out, facing(a))
	}
	return out
}

// Mode is the kind of edit.
type Mode uint8

const (
	Remove Mode = iota
	Place
)

// Modification is one queued block edit. For Place, Index is the block the
// viewer hit and Direction the camera direction; the new block goes into
// the empty cell in front of the hit face.
type Modification struct {
	Mode      Mode
	Block     block.Block
	Index     chunk.BlockIndex
	Direction mgl32.Vec3
	Chunk     *chunk.Chunk
}

// DeltaStore records edits durably.
type DeltaStore interface {
	AddDelta(idx chunk.Index, bi chunk.BlockIndex, b block.Block)
	RevertDelta(idx chunk.Index, bi chunk.BlockIndex)
}

// BaseSource reports what terrain generation puts at a world cell.
type BaseSource interface {
	BaseBlock(wx, wy, wz int) block.Block
}

// ModificationSystem applies queued edits once per frame: it writes the
// block, relights, records the delta and hands every affected chunk to the
// remesh callback.
type ModificationSystem struct {
	region    *region.Region
	meta      block.MetadataProvider
	light     *light.System
	store     DeltaStore
	base      BaseSource
	onChanged func(c *chunk.Chunk)
	log       *slog.Logger

	mu    sync.Mutex
	queue []Modification
}

// NewModificationSystem creates a ModificationSystem. store and base may be
// nil, in which case edits are not persisted.
func NewModificationSystem(r *region.Region, meta block.MetadataProvider, ls *light.System, store DeltaStore, base BaseSource, onChanged func(c *chunk.Chunk), log *slog.Logger) *ModificationSystem {
	return &ModificationSystem{
		region:    r,
		meta:      meta,
		light:     ls,
		store:     store,
		base:      base,
		onChanged: onChanged,
		log:       log,
	}
}

// Add queues m for the next Update.
func (s *ModificationSystem) Add(m Modification) {
	s.mu.Lock()
	s.queue = append(s.queue, m)
	s.mu.Unlock()
}

// Remove queues removal of the block at bi in c.
func (s *ModificationSystem) Remove(bi chunk.BlockIndex, c *chunk.Chunk) {
	s.Add(Modification{Mode: Remove, Index: bi, Chunk: c})
}

// Place queues placement of b against the block at bi in c, seen along dir.
func (s *ModificationSystem) Place(b block.Block, bi chunk.BlockIndex, dir mgl32.Vec3, c *chunk.Chunk) {
	s.Add(Modification{Mode: Place, Block: b, Index: bi, Direction: dir, Chunk: c})
}

// Pending returns the number of queued edits.
func (s *ModificationSystem) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Update applies every queued edit and returns the number applied. Affected
// chunks are passed to the callback once each, after the lattice lock is
// released.
func (s *ModificationSystem) Update() int {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()
	if len(queue) == 0 {
		return 0
	}

	applied := 0
	var dirty []*chunk.Chunk
	seen := make(map[*chunk.Chunk]struct{})
	mark := func(c *chunk.Chunk) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			dirty = append(dirty, c)
		}
	}

	s.region.Update(func() {
		for _, m := range queue {
			if s.apply(m, mark) {
				applied++
			}
		}
	})

	if s.onChanged != nil {
		for _, c := range dirty {
			s.onChanged(c)
		}
	}
	return applied
}

func (s *ModificationSystem) apply(m Modification, mark func(*chunk.Chunk)) bool {
	c := m.Chunk
	if c == nil || c.Disposed() || c.State() != chunk.Ready {
		s.log.Debug("dropping edit on unloaded chunk", "block", m.Index)
		return false
	}

	switch m.Mode {
	case Remove:
		if c.Block(m.Index.X, m.Index.Y, m.Index.Z).IsEmpty() {
			return false
		}
		s.set(c, m.Index, block.Air, mark)
		return true
	case Place:
		if m.Block.IsEmpty() {
			return false
		}
		t, bi, ok := s.placementTarget(c, m.Index, m.Direction)
		if !ok {
			s.log.Debug("no free cell to place block", "chunk", c.Index, "block", m.Index)
			return false
		}
		s.set(t, bi, m.Block, mark)
		return true
	default:
		return false
	}
}

// placementTarget finds the empty cell that receives a placed block. A hit
// on an empty cell places there.
func (s *ModificationSystem) placementTarget(c *chunk.Chunk, hit chunk.BlockIndex, dir mgl32.Vec3) (*chunk.Chunk, chunk.BlockIndex, bool) {
	if c.Block(hit.X, hit.Y, hit.Z).IsEmpty() {
		return c, hit, true
	}
	for _, f := range placementFaces(dir) {
		dx, dy, dz := f.Offset()
		t, x, y, z := c.Resolve(hit.X+dx, hit.Y+dy, hit.Z+dz)
		if t == nil || t.State() != chunk.Ready {
			continue
		}
		if t.Block(x, y, z).IsEmpty() {
			return t, chunk.BlockIndex{X: x, Y: y, Z: z}, true
		}
	}
	return nil, chunk.BlockIndex{}, false
}

// set writes b, updates light and marks c plus every chunk whose light or
// boundary faces changed.
func (s *ModificationSystem) set(c *chunk.Chunk, bi chunk.BlockIndex, b block.Block, mark func(*chunk.Chunk)) {
	old := c.Block(bi.X, bi.Y, bi.Z)
	c.SetBlock(bi.X, bi.Y, bi.Z, b)

	if s.meta.IsLightSource(old) {
		c.RemoveLightSource(bi)
	}
	if s.meta.IsLightSource(b) {
		c.AddLightSource(bi)
	}

	mark(c)
	for _, t := range s.light.BlockChanged(c, bi.X, bi.Y, bi.Z, old, b) {
		mark(t)
	}
	for _, f := range block.Faces {
		dx, dy, dz := f.Offset()
		if chunk.InBounds(bi.X+dx, bi.Y+dy, bi.Z+dz) {
			continue
		}
		if n := c.Neighbor(f); n != nil {
			mark(n)
		}
	}

	s.record(c.Index, bi, b)
	s.log.Debug("block changed", "chunk", c.Index, "block", bi, "from", s.meta.Name(old), "to", s.meta.Name(b))
}

// record stores the edit, or drops the stored entry when b matches what
// generation would produce there.
func (s *ModificationSystem) record(idx chunk.Index, bi chunk.BlockIndex, b block.Block) {
	if s.store == nil {
		return
	}
	if s.base != nil {
		wx, wy, wz := chunk.WorldBlock(idx, bi)
		if s.base.BaseBlock(wx, wy, wz) == b {
			s.store.RevertDelta(idx, bi)
			return
		}
	}
	s.store.AddDelta(idx, bi, b)
}
