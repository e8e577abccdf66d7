// Package light propagates sky and block light through linked chunks.
//
// Both channels spread by breadth-first flood fill, losing one level per
// step and never entering opaque blocks. Sky light at full strength travels
// straight down without loss. A chunk whose upper neighbour is not loaded
// assumes open sky above every column whose surface lies below its top.
//
// Every method mutates light across neighbour links, so callers must hold
// the region's exclusive lock or own chunks that are not yet published.
package light

import (
	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

type channel uint8

const (
	sky channel = iota
	blk
)

type node struct {
	c       *chunk.Chunk
	x, y, z int
	v       uint8
}

// System computes light for chunks using block metadata for opacity and
// emission.
type System struct {
	meta block.MetadataProvider
}

// New creates a System.
func New(meta block.MetadataProvider) *System {
	return &System{meta: meta}
}

type pass struct {
	s       *System
	queues  [2][]node
	touched map[*chunk.Chunk]struct{}
}

func (s *System) newPass() *pass {
	return &pass{s: s, touched: make(map[*chunk.Chunk]struct{})}
}

func get(ch channel, c *chunk.Chunk, x, y, z int) uint8 {
	if ch == sky {
		return c.SkyLight(x, y, z)
	}
	return c.BlockLight(x, y, z)
}

func (p *pass) set(ch channel, c *chunk.Chunk, x, y, z int, v uint8) {
	if ch == sky {
		c.SetSkyLight(x, y, z, v)
	} else {
		c.SetBlockLight(x, y, z, v)
	}
	p.touched[c] = struct{}{}
}

func (p *pass) push(ch channel, c *chunk.Chunk, x, y, z int) {
	p.queues[ch] = append(p.queues[ch], node{c: c, x: x, y: y, z: z})
}

func (p *pass) opaque(c *chunk.Chunk, x, y, z int) bool {
	return block.IsOpaque(p.s.meta, c.Block(x, y, z))
}

// skySeed reports whether the cell is the top of a column that is assumed
// to see the sky because nothing is loaded above it.
func (p *pass) skySeed(c *chunk.Chunk, x, y, z int) bool {
	if y != chunk.Size-1 || c.Neighbor(block.YPos) != nil {
		return false
	}
	top := c.Index.Y*chunk.Size + chunk.Size - 1
	return top >= c.Surface(x, z)
}

// seedBoundary queues every lit cell on the layer of c facing f.
func (p *pass) seedBoundary(c *chunk.Chunk, f block.Face) {
	forLayer(f, func(x, y, z int) {
		l := c.Light(x, y, z)
		if l.Sky > 0 {
			p.push(sky, c, x, y, z)
		}
		if l.Block > 0 {
			p.push(blk, c, x, y, z)
		}
	})
}

func forLayer(f block.Face, fn func(x, y, z int)) {
	const last = chunk.Size - 1
	for a := 0; a < chunk.Size; a++ {
		for b := 0; b < chunk.Size; b++ {
			switch f {
			case block.XNeg:
				fn(0, a, b)
			case block.XPos:
				fn(last, a, b)
			case block.YNeg:
				fn(a, 0, b)
			case block.YPos:
				fn(a, last, b)
			case block.ZNeg:
				fn(a, b, 0)
			case block.ZPos:
				fn(a, b, last)
			}
		}
	}
}

func (p *pass) propagate() {
	for _, ch := range [...]channel{sky, blk} {
		q := p.queues[ch]
		for head := 0; head < len(q); head++ {
			n := q[head]
			v := get(ch, n.c, n.x, n.y, n.z)
			if v <= 1 {
				continue
			}
			for _, f := range block.Faces {
				dx, dy, dz := f.Offset()
				m, mx, my, mz := n.c.Resolve(n.x+dx, n.y+dy, n.z+dz)
				if m == nil || p.opaque(m, mx, my, mz) {
					continue
				}
				target := v - 1
				if ch == sky && f == block.YNeg && v == chunk.MaxLight {
					target = chunk.MaxLight
				}
				if get(ch, m, mx, my, mz) >= target {
					continue
				}
				p.set(ch, m, mx, my, mz, target)
				q = append(q, node{c: m, x: mx, y: my, z: mz})
			}
		}
		p.queues[ch] = q[:0]
	}
}

// remove darkens every cell whose light in ch could only have come through
// start, then queues the brighter cells bordering the dark area so that
// propagate refills it.
func (p *pass) remove(ch channel, start node) {
	p.set(ch, start.c, start.x, start.y, start.z, 0)
	rq := []node{start}
	for head := 0; head < len(rq); head++ {
		n := rq[head]
		for _, f := range block.Faces {
			dx, dy, dz := f.Offset()
			m, mx, my, mz := n.c.Resolve(n.x+dx, n.y+dy, n.z+dz)
			if m == nil {
				continue
			}
			mv := get(ch, m, mx, my, mz)
			if mv == 0 {
				continue
			}
			dependent := mv < n.v || (ch == sky && f == block.YNeg && n.v == chunk.MaxLight && mv == chunk.MaxLight)
			if !dependent {
				p.push(ch, m, mx, my, mz)
				continue
			}
			var keep uint8
			if ch == blk {
				keep = p.s.meta.Emission(m.Block(mx, my, mz))
			}
			if keep >= mv {
				p.push(ch, m, mx, my, mz)
				continue
			}
			p.set(ch, m, mx, my, mz, keep)
			rq = append(rq, node{c: m, x: mx, y: my, z: mz, v: mv})
			if keep > 0 {
				p.push(ch, m, mx, my, mz)
			}
		}
	}
}

func (p *pass) touchedChunks() []*chunk.Chunk {
	out := make([]*chunk.Chunk, 0, len(p.touched))
	for c := range p.touched {
		out = append(out, c)
	}
	return out
}

// Light computes c's light from scratch: open-sky columns, its emitters and
// whatever its linked neighbours already shine across the boundary. Light
// may spill into neighbours but c's previous values are discarded.
func (s *System) Light(c *chunk.Chunk) []*chunk.Chunk {
	p := s.newPass()
	c.ClearLight()
	p.touched[c] = struct{}{}

	const top = chunk.Size - 1
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			if p.skySeed(c, x, top, z) && !p.opaque(c, x, top, z) {
				p.set(sky, c, x, top, z, chunk.MaxLight)
				p.push(sky, c, x, top, z)
			}
		}
	}

	for _, src := range c.LightSources() {
		e := s.meta.Emission(c.Block(src.X, src.Y, src.Z))
		if e == 0 {
			continue
		}
		p.set(blk, c, src.X, src.Y, src.Z, e)
		p.push(blk, c, src.X, src.Y, src.Z)
	}

	for _, f := range block.Faces {
		if n := c.Neighbor(f); n != nil {
			p.seedBoundary(n, f.Opposite())
		}
	}

	p.propagate()
	return p.touchedChunks()
}

// Stitch reconciles a freshly linked chunk with its neighbours. Columns
// that assumed open sky but are covered by the chunk now loaded above are
// darkened, then light is exchanged across every linked face. It returns
// every chunk whose light changed.
func (s *System) Stitch(c *chunk.Chunk) []*chunk.Chunk {
	p := s.newPass()

	if up := c.Neighbor(block.YPos); up != nil {
		p.correctSky(c, up)
	}
	if down := c.Neighbor(block.YNeg); down != nil {
		p.correctSky(down, c)
	}

	for _, f := range block.Faces {
		n := c.Neighbor(f)
		if n == nil {
			continue
		}
		p.seedBoundary(c, f)
		p.seedBoundary(n, f.Opposite())
	}

	p.propagate()
	return p.touchedChunks()
}

func (p *pass) correctSky(lower, upper *chunk.Chunk) {
	const top = chunk.Size - 1
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			if lower.SkyLight(x, top, z) == chunk.MaxLight && upper.SkyLight(x, 0, z) < chunk.MaxLight {
				p.remove(sky, node{c: lower, x: x, y: top, z: z, v: chunk.MaxLight})
			}
		}
	}
}

// BlockChanged updates light after the block at (x,y,z) in c changed from
// old to current. The chunk must already hold the new block. It returns
// every chunk whose light changed.
func (s *System) BlockChanged(c *chunk.Chunk, x, y, z int, old, current block.Block) []*chunk.Chunk {
	p := s.newPass()
	p.touched[c] = struct{}{}
	opaque := block.IsOpaque(s.meta, current)

	if v := c.BlockLight(x, y, z); v > 0 && (opaque || s.meta.Emission(old) > 0) {
		p.remove(blk, node{c: c, x: x, y: y, z: z, v: v})
	}
	if v := c.SkyLight(x, y, z); v > 0 && opaque {
		p.remove(sky, node{c: c, x: x, y: y, z: z, v: v})
	}

	if e := s.meta.Emission(current); e > 0 && e > c.BlockLight(x, y, z) {
		p.set(blk, c, x, y, z, e)
		p.push(blk, c, x, y, z)
	}

	if !opaque {
		for _, f := range block.Faces {
			dx, dy, dz := f.Offset()
			m, mx, my, mz := c.Resolve(x+dx, y+dy, z+dz)
			if m == nil {
				continue
			}
			p.push(sky, m, mx, my, mz)
			p.push(blk, m, mx, my, mz)
		}
		if p.skySeed(c, x, y, z) {
			p.set(sky, c, x, y, z, chunk.MaxLight)
			p.push(sky, c, x, y, z)
		}
	}

	p.propagate()
	return p.touchedChunks()
}

// FacesLight returns, for each face set in fs, the light of the cell that
// face looks into. Faces on an unlinked boundary use the block's own cell.
func (s *System) FacesLight(c *chunk.Chunk, x, y, z int, fs block.FacesState) [block.FaceCount]chunk.LightValue {
	var out [block.FaceCount]chunk.LightValue
	for _, f := range block.Faces {
		if !fs.Has(f) {
			continue
		}
		dx, dy, dz := f.Offset()
		m, mx, my, mz := c.Resolve(x+dx, y+dy, z+dz)
		if m == nil {
			out[f] = c.Light(x, y, z)
			continue
		}
		out[f] = m.Light(mx, my, mz)
	}
	return out
}
