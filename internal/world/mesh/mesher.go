package mesh

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
	"github.com/OCharnyshevich/voxel-world/internal/world/light"
)

// Vertex is one emitted mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Light    float32
	Color    mgl32.Vec3
}

// Mesh is the geometry of one chunk. Both lists are immutable once
// published; a rebuild publishes a new Mesh.
type Mesh struct {
	Opaque      []Vertex
	Transparent []Vertex
}

// Len returns the total vertex count.
func (m *Mesh) Len() int { return len(m.Opaque) + len(m.Transparent) }

// Options tune mesh output.
type Options struct {
	// MaxVertices caps a chunk's combined vertex count; 0 disables the cap.
	MaxVertices int
	// TintGrid is the biome tint grid size in blocks.
	TintGrid int
	// LightBlockFactor weights the block channel in Vertex.Light.
	LightBlockFactor float32
}

// Mesher builds and caches chunk meshes keyed by chunk index.
type Mesher struct {
	meta   block.MetadataProvider
	light  *light.System
	atlas  Atlas
	tinter *Tinter
	opts   Options
	log    *slog.Logger

	meshes sync.Map // chunk.Index -> *Mesh
}

// New creates a Mesher.
func New(meta block.MetadataProvider, ls *light.System, atlas Atlas, opts Options, log *slog.Logger) *Mesher {
	if opts.LightBlockFactor == 0 {
		opts.LightBlockFactor = 397
	}
	return &Mesher{
		meta:   meta,
		light:  ls,
		atlas:  atlas,
		tinter: NewTinter(meta, opts.TintGrid),
		opts:   opts,
		log:    log,
	}
}

// BuildMesh computes c's geometry without touching the cache. Callers
// must hold the region's lattice lock at least shared.
func (m *Mesher) BuildMesh(c *chunk.Chunk) *Mesh {
	out := &Mesh{}
	for y := 0; y < chunk.Size; y++ {
		for z := 0; z < chunk.Size; z++ {
			for x := 0; x < chunk.Size; x++ {
				b := c.Block(x, y, z)
				if b.IsEmpty() {
					continue
				}
				fs := c.VisibleFaces(m.meta, x, y, z)
				if !fs.Any() {
					continue
				}

				dst := &out.Opaque
				if m.meta.IsTransparent(b) {
					dst = &out.Transparent
				}
				*dst = m.appendBlock(*dst, c, b, x, y, z, fs)
			}
		}
	}
	return out
}

func (m *Mesher) appendBlock(dst []Vertex, c *chunk.Chunk, b block.Block, x, y, z int, fs block.FacesState) []Vertex {
	lights := m.light.FacesLight(c, x, y, z, fs)
	origin := c.Position.Add(mgl32.Vec3{float32(x), float32(y), float32(z)})
	wx, wz := c.Index.X*chunk.Size+x, c.Index.Z*chunk.Size+z

	for _, f := range block.Faces {
		if !fs.Has(f) {
			continue
		}
		texture := b
		if m.meta.IsMultiface(b) {
			texture = m.meta.MultifaceTexture(b, f)
		}
		shade := lights[f].Shade(m.opts.LightBlockFactor)
		color := m.tinter.Color(texture, wx, wz)

		for i, corner := range faceCorners[f] {
			dst = append(dst, Vertex{
				Position: origin.Add(corner),
				UV:       m.atlas.UV(texture, faceUVs[i]),
				Light:    shade,
				Color:    color,
			})
		}
	}
	return dst
}

// Build rebuilds and publishes c's mesh. Disposed chunks are skipped so an
// eviction racing a rebuild cannot resurrect a cache entry. Callers must
// hold the region's lattice lock at least shared.
func (m *Mesher) Build(c *chunk.Chunk) *Mesh {
	mesh := m.BuildMesh(c)
	if m.opts.MaxVertices > 0 && mesh.Len() > m.opts.MaxVertices {
		m.log.Warn("mesh exceeds vertex capacity, truncating",
			"chunk", c.Index,
			"vertices", mesh.Len(),
			"max", m.opts.MaxVertices,
		)
		mesh = truncate(mesh, m.opts.MaxVertices)
	}
	if c.Disposed() {
		return mesh
	}
	m.meshes.Store(c.Index, mesh)
	return mesh
}

// truncate keeps whole faces up to limit vertices, opaque geometry first.
func truncate(mesh *Mesh, limit int) *Mesh {
	limit -= limit % VerticesPerFace
	out := &Mesh{Opaque: mesh.Opaque, Transparent: mesh.Transparent}
	if len(out.Opaque) >= limit {
		return &Mesh{Opaque: out.Opaque[:limit:limit]}
	}
	rest := limit - len(out.Opaque)
	if len(out.Transparent) > rest {
		out.Transparent = out.Transparent[:rest:rest]
	}
	return out
}

// Remove drops the cached mesh for idx.
func (m *Mesher) Remove(idx chunk.Index) {
	m.meshes.Delete(idx)
}

// Get returns the cached mesh for idx.
func (m *Mesher) Get(idx chunk.Index) (*Mesh, bool) {
	v, ok := m.meshes.Load(idx)
	if !ok {
		return nil, false
	}
	return v.(*Mesh), true
}

// GetVertices returns the opaque vertices cached for idx.
func (m *Mesher) GetVertices(idx chunk.Index) []Vertex {
	if mesh, ok := m.Get(idx); ok {
		return mesh.Opaque
	}
	return nil
}

// GetTransparentVertices returns the transparent vertices cached for idx.
func (m *Mesher) GetTransparentVertices(idx chunk.Index) []Vertex {
	if mesh, ok := m.Get(idx); ok {
		return mesh.Transparent
	}
	return nil
}

// Len returns the number of cached meshes.
func (m *Mesher) Len() int {
	n := 0
	m.meshes.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
