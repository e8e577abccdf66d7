package region

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// Region holds every loaded chunk keyed by chunk index, plus the neighbour
// graph between them.
//
// Lookups are lock-free. The lattice lock serialises everything that
// mutates the neighbour graph or light values; readers that walk neighbour
// links (meshing) take it shared.
type Region struct {
	chunks sync.Map // chunk.Index -> *chunk.Chunk
	count  atomic.Int64

	lattice sync.RWMutex

	apothem   int
	proximity []chunk.Index
	log       *slog.Logger
}

// New creates an empty Region that keeps chunks within apothem of the center.
func New(apothem int, log *slog.Logger) *Region {
	if apothem < 0 {
		apothem = 0
	}
	return &Region{
		apothem:   apothem,
		proximity: proximityIndexes(apothem),
		log:       log,
	}
}

// proximityIndexes returns every offset in [-apothem, apothem]³, nearest
// first by Manhattan distance, ties broken by x, y, z.
func proximityIndexes(apothem int) []chunk.Index {
	side := 2*apothem + 1
	out := make([]chunk.Index, 0, side*side*side)
	for x := -apothem; x <= apothem; x++ {
		for y := -apothem; y <= apothem; y++ {
			for z := -apothem; z <= apothem; z++ {
				out = append(out, chunk.Index{X: x, Y: y, Z: z})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Manhattan(), out[j].Manhattan()
		if di != dj {
			return di < dj
		}
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// Apothem returns the configured radius in chunks.
func (r *Region) Apothem() int { return r.apothem }

// ProximityIndexes returns a copy of the sorted offsets.
func (r *Region) ProximityIndexes() []chunk.Index {
	return append([]chunk.Index(nil), r.proximity...)
}

// InRange reports whether idx lies within the apothem of center.
func (r *Region) InRange(center, idx chunk.Index) bool {
	return center.Chebyshev(idx) <= r.apothem
}

// Get returns the chunk at idx, or nil.
func (r *Region) Get(idx chunk.Index) *chunk.Chunk {
	v, ok := r.chunks.Load(idx)
	if !ok {
		return nil
	}
	return v.(*chunk.Chunk)
}

// Len returns the number of loaded chunks.
func (r *Region) Len() int { return int(r.count.Load()) }

// Insert stores c under its index if no chunk is there yet. It reports
// whether c was stored; an occupied index is a caller bug and is logged.
func (r *Region) Insert(c *chunk.Chunk) bool {
	if _, loaded := r.chunks.LoadOrStore(c.Index, c); loaded {
		r.log.Error("insert into occupied chunk index", "chunk", c.Index)
		return false
	}
	r.count.Add(1)
	return true
}

// Range calls fn for every loaded chunk until fn returns false.
func (r *Region) Range(fn func(c *chunk.Chunk) bool) {
	r.chunks.Range(func(_, v any) bool {
		return fn(v.(*chunk.Chunk))
	})
}

// ActiveChunks returns the chunks that are lit, meshed and visible.
func (r *Region) ActiveChunks() []*chunk.Chunk {
	var out []*chunk.Chunk
	r.Range(func(c *chunk.Chunk) bool {
		if c.State() == chunk.Ready {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Update runs fn holding the lattice lock exclusively. Neighbour links and
// light values may be mutated inside fn.
func (r *Region) Update(fn func()) {
	r.lattice.Lock()
	defer r.lattice.Unlock()
	fn()
}

// View runs fn holding the lattice lock shared. fn may follow neighbour
// links and read light but must not mutate either.
func (r *Region) View(fn func()) {
	r.lattice.RLock()
	defer r.lattice.RUnlock()
	fn()
}

// TryView runs fn holding the lattice lock shared and reports true, or
// reports false without running fn if a writer holds or is waiting for the
// lock. A render loop can use it to skip a frame instead of blocking.
func (r *Region) TryView(fn func()) bool {
	if !r.lattice.TryRLock() {
		return false
	}
	defer r.lattice.RUnlock()
	fn()
	return true
}

// LinkChunk connects c with every loaded face neighbour, in both directions.
// c must be the chunk stored at its index.
func (r *Region) LinkChunk(c *chunk.Chunk) bool {
	r.lattice.Lock()
	defer r.lattice.Unlock()
	return r.link(c)
}

// Publish inserts c, links it and runs then while still holding the
// lattice lock, so no reader observes c linked but not yet stitched.
func (r *Region) Publish(c *chunk.Chunk, then func(c *chunk.Chunk)) bool {
	r.lattice.Lock()
	defer r.lattice.Unlock()

	if !r.Insert(c) {
		return false
	}
	if !r.link(c) {
		return false
	}
	if then != nil {
		then(c)
	}
	return true
}

func (r *Region) link(c *chunk.Chunk) bool {
	if r.Get(c.Index) != c {
		r.log.Error("link chunk not stored at its index", "chunk", c.Index)
		return false
	}
	for _, f := range block.Faces {
		n := r.Get(c.Index.Neighbor(f))
		if n == nil || n == c {
			continue
		}
		c.SetNeighbor(f, n)
		n.SetNeighbor(f.Opposite(), c)
	}
	return true
}

// RemoveChunk takes the chunk at idx out of the region, clears every
// neighbour's link to it and then disposes it. It returns the removed
// chunk, or nil if idx was not loaded.
func (r *Region) RemoveChunk(idx chunk.Index) *chunk.Chunk {
	r.lattice.Lock()
	defer r.lattice.Unlock()

	v, ok := r.chunks.LoadAndDelete(idx)
	if !ok {
		return nil
	}
	r.count.Add(-1)
	c := v.(*chunk.Chunk)

	for _, f := range block.Faces {
		if n := c.Neighbor(f); n != nil {
			if n.Neighbor(f.Opposite()) == c {
				n.SetNeighbor(f.Opposite(), nil)
			}
			c.SetNeighbor(f, nil)
		}
	}
	c.Dispose()
	return c
}

// CollectIndexesForGeneration returns, nearest first, every index around
// center that has no chunk or whose chunk is Unloaded.
func (r *Region) CollectIndexesForGeneration(center chunk.Index) []chunk.Index {
	var out []chunk.Index
	for _, off := range r.proximity {
		idx := center.Add(off)
		c := r.Get(idx)
		if c == nil || c.State() == chunk.Unloaded {
			out = append(out, idx)
		}
	}
	return out
}

// CollectIndexesForRemoval returns every loaded index outside the apothem
// of center.
func (r *Region) CollectIndexesForRemoval(center chunk.Index) []chunk.Index {
	var out []chunk.Index
	r.chunks.Range(func(k, _ any) bool {
		idx := k.(chunk.Index)
		if !r.InRange(center, idx) {
			out = append(out, idx)
		}
		return true
	})
	return out
}
