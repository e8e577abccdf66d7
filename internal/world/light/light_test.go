package light

import (
	"testing"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

var meta = block.MustDefault()

// coverSky marks every column as buried so no sky light is seeded.
func coverSky(c *chunk.Chunk) {
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			c.SetSurface(x, z, 1<<20)
		}
	}
}

func setSurface(c *chunk.Chunk, y int) {
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			c.SetSurface(x, z, y)
		}
	}
}

func link(a *chunk.Chunk, f block.Face, b *chunk.Chunk) {
	a.SetNeighbor(f, b)
	b.SetNeighbor(f.Opposite(), a)
}

func place(c *chunk.Chunk, x, y, z int, name string) {
	b := meta.MustIndex(name)
	c.SetBlock(x, y, z, b)
	if meta.IsLightSource(b) {
		c.AddLightSource(chunk.BlockIndex{X: x, Y: y, Z: z})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSingleEmitterFalloff(t *testing.T) {
	c := chunk.New(chunk.Index{})
	coverSky(c)
	place(c, 8, 8, 8, "glowstone")

	New(meta).Light(c)

	for x := 0; x < chunk.Size; x++ {
		for y := 0; y < chunk.Size; y++ {
			for z := 0; z < chunk.Size; z++ {
				d := abs(x-8) + abs(y-8) + abs(z-8)
				want := max(14-d, 0)
				got := c.BlockLight(x, y, z)
				if int(got) != want {
					t.Fatalf("block light at (%d,%d,%d) distance %d = %d, want %d", x, y, z, d, got, want)
				}
				if c.SkyLight(x, y, z) != 0 {
					t.Fatalf("sky light at (%d,%d,%d) should be 0", x, y, z)
				}
			}
		}
	}
}

func TestSkyLightFallsWithoutLoss(t *testing.T) {
	c := chunk.New(chunk.Index{})
	setSurface(c, 4)
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			for y := 0; y < 4; y++ {
				place(c, x, y, z, "stone")
			}
		}
	}
	// A roof over x in [0,4) shades the cells beneath it.
	for x := 0; x < 4; x++ {
		for z := 0; z < chunk.Size; z++ {
			place(c, x, 10, z, "stone")
		}
	}

	New(meta).Light(c)

	if got := c.SkyLight(8, 4, 8); got != chunk.MaxLight {
		t.Errorf("open ground sky = %d, want %d", got, chunk.MaxLight)
	}
	if got := c.SkyLight(8, 2, 8); got != 0 {
		t.Errorf("sky inside stone = %d, want 0", got)
	}
	if got := c.SkyLight(3, 5, 8); got != chunk.MaxLight-1 {
		t.Errorf("sky under roof edge = %d, want %d", got, chunk.MaxLight-1)
	}
	if got := c.SkyLight(0, 5, 8); got != chunk.MaxLight-4 {
		t.Errorf("sky deep under roof = %d, want %d", got, chunk.MaxLight-4)
	}
	if got := c.SkyLight(0, 11, 8); got != chunk.MaxLight {
		t.Errorf("sky above roof = %d, want %d", got, chunk.MaxLight)
	}
}

func TestLightMonotonicity(t *testing.T) {
	a := chunk.New(chunk.Index{})
	b := chunk.New(chunk.Index{X: 1})
	link(a, block.XPos, b)
	for _, c := range []*chunk.Chunk{a, b} {
		setSurface(c, 3)
		for x := 0; x < chunk.Size; x++ {
			for z := 0; z < chunk.Size; z++ {
				for y := 0; y < 3; y++ {
					place(c, x, y, z, "stone")
				}
				if (x*7+z*3)%5 == 0 {
					place(c, x, 6, z, "stone")
				}
			}
		}
	}
	place(a, 14, 4, 9, "glowstone")
	place(b, 2, 7, 3, "torch")

	s := New(meta)
	s.Light(a)
	s.Light(b)

	for _, c := range []*chunk.Chunk{a, b} {
		for x := 0; x < chunk.Size; x++ {
			for y := 0; y < chunk.Size; y++ {
				for z := 0; z < chunk.Size; z++ {
					if block.IsOpaque(meta, c.Block(x, y, z)) {
						if c.SkyLight(x, y, z) != 0 {
							t.Fatalf("opaque %v (%d,%d,%d) has sky light", c.Index, x, y, z)
						}
						if c.BlockLight(x, y, z) > meta.Emission(c.Block(x, y, z)) {
							t.Fatalf("opaque %v (%d,%d,%d) brighter than its emission", c.Index, x, y, z)
						}
						continue
					}
					for _, f := range block.Faces {
						dx, dy, dz := f.Offset()
						m, mx, my, mz := c.Resolve(x+dx, y+dy, z+dz)
						if m == nil || block.IsOpaque(meta, m.Block(mx, my, mz)) {
							continue
						}
						l, ml := c.Light(x, y, z), m.Light(mx, my, mz)
						if abs(int(l.Sky)-int(ml.Sky)) > 1 {
							t.Fatalf("sky jump %d -> %d across %s at %v (%d,%d,%d)", l.Sky, ml.Sky, f, c.Index, x, y, z)
						}
						if abs(int(l.Block)-int(ml.Block)) > 1 {
							t.Fatalf("block jump %d -> %d across %s at %v (%d,%d,%d)", l.Block, ml.Block, f, c.Index, x, y, z)
						}
					}
				}
			}
		}
	}
}

// buildPair returns two freshly filled, unlit and unlinked chunks.
func buildPair(second chunk.Index, fill func(c *chunk.Chunk)) (*chunk.Chunk, *chunk.Chunk) {
	a := chunk.New(chunk.Index{})
	b := chunk.New(second)
	fill(a)
	fill(b)
	return a, b
}

func assertSameLight(t *testing.T, name string, got, want *chunk.Chunk) {
	t.Helper()
	for x := 0; x < chunk.Size; x++ {
		for y := 0; y < chunk.Size; y++ {
			for z := 0; z < chunk.Size; z++ {
				if g, w := got.Light(x, y, z), want.Light(x, y, z); g != w {
					t.Fatalf("%s %v (%d,%d,%d): light %+v, want %+v", name, got.Index, x, y, z, g, w)
				}
			}
		}
	}
}

func TestBoundaryContinuityAcrossX(t *testing.T) {
	fill := func(c *chunk.Chunk) {
		setSurface(c, 5)
		for x := 0; x < chunk.Size; x++ {
			for z := 0; z < chunk.Size; z++ {
				for y := 0; y < 5; y++ {
					place(c, x, y, z, "stone")
				}
			}
		}
		if c.Index.X == 0 {
			place(c, 15, 6, 7, "glowstone")
		} else {
			// Overhang next to the boundary so sky light reaches it sideways.
			for x := 0; x < 6; x++ {
				for z := 0; z < chunk.Size; z++ {
					place(c, x, 9, z, "stone")
				}
			}
		}
	}
	s := New(meta)

	da, db := buildPair(chunk.Index{X: 1}, fill)
	s.Light(da)
	s.Light(db)
	link(da, block.XPos, db)
	s.Stitch(db)

	sa, sb := buildPair(chunk.Index{X: 1}, fill)
	link(sa, block.XPos, sb)
	s.Light(sa)
	s.Light(sb)

	assertSameLight(t, "deferred", da, sa)
	assertSameLight(t, "deferred", db, sb)
	if da.Digest() != sa.Digest() || db.Digest() != sb.Digest() {
		t.Error("digests differ")
	}
	if got := db.BlockLight(0, 6, 7); got != 13 {
		t.Errorf("light across boundary = %d, want 13", got)
	}
}

func TestBoundaryContinuityAcrossYWithStaleSurface(t *testing.T) {
	// The lower chunk believes its columns are open, but the chunk above
	// holds a roof. Linking must darken the columns beneath it.
	fill := func(c *chunk.Chunk) {
		setSurface(c, 4)
		if c.Index.Y == 0 {
			for x := 0; x < chunk.Size; x++ {
				for z := 0; z < chunk.Size; z++ {
					for y := 0; y < 4; y++ {
						place(c, x, y, z, "stone")
					}
				}
			}
			place(c, 2, 4, 2, "torch")
			return
		}
		for x := 0; x < 10; x++ {
			for z := 0; z < chunk.Size; z++ {
				place(c, x, 3, z, "stone")
			}
		}
	}
	s := New(meta)

	da, db := buildPair(chunk.Index{Y: 1}, fill)
	s.Light(da)
	s.Light(db)
	if da.SkyLight(0, 15, 0) != chunk.MaxLight {
		t.Fatal("isolated lower chunk should assume open sky")
	}
	link(da, block.YPos, db)
	s.Stitch(db)

	sa, sb := buildPair(chunk.Index{Y: 1}, fill)
	link(sa, block.YPos, sb)
	s.Light(sa)
	s.Light(sb)

	assertSameLight(t, "deferred lower", da, sa)
	assertSameLight(t, "deferred upper", db, sb)
	if got := da.SkyLight(0, 8, 8); got >= chunk.MaxLight {
		t.Errorf("covered column sky = %d, want < %d", got, chunk.MaxLight)
	}
	if got := da.SkyLight(12, 8, 8); got != chunk.MaxLight {
		t.Errorf("open column sky = %d, want %d", got, chunk.MaxLight)
	}
}

func TestRemoveOneOfTwoSources(t *testing.T) {
	build := func(sources ...[3]int) *chunk.Chunk {
		c := chunk.New(chunk.Index{})
		coverSky(c)
		for _, s := range sources {
			place(c, s[0], s[1], s[2], "glowstone")
		}
		return c
	}
	left, right := [3]int{5, 8, 8}, [3]int{8, 8, 8}
	s := New(meta)

	both := build(left, right)
	s.Light(both)
	if got := both.BlockLight(6, 8, 8); got != 13 {
		t.Fatalf("between sources = %d, want 13", got)
	}

	old := both.Block(left[0], left[1], left[2])
	both.SetBlock(left[0], left[1], left[2], block.Air)
	both.RemoveLightSource(chunk.BlockIndex{X: left[0], Y: left[1], Z: left[2]})
	s.BlockChanged(both, left[0], left[1], left[2], old, block.Air)

	only := build(right)
	s.Light(only)
	assertSameLight(t, "after removal", both, only)

	// Putting it back restores the two-source field.
	place(both, left[0], left[1], left[2], "glowstone")
	s.BlockChanged(both, left[0], left[1], left[2], block.Air, meta.MustIndex("glowstone"))
	again := build(left, right)
	s.Light(again)
	assertSameLight(t, "after re-adding", both, again)
}

func TestPlaceAndRemoveRestoresLight(t *testing.T) {
	a := chunk.New(chunk.Index{})
	b := chunk.New(chunk.Index{X: 1})
	for _, c := range []*chunk.Chunk{a, b} {
		setSurface(c, 2)
		for x := 0; x < chunk.Size; x++ {
			for z := 0; z < chunk.Size; z++ {
				place(c, x, 0, z, "stone")
				place(c, x, 1, z, "stone")
			}
		}
	}
	place(a, 12, 2, 3, "torch")
	link(a, block.XPos, b)
	s := New(meta)
	s.Light(a)
	s.Light(b)
	before := [2]uint64{a.Digest(), b.Digest()}

	// Cap the boundary column, then remove the cap again.
	stone := meta.MustIndex("stone")
	for _, y := range []int{9, 5} {
		a.SetBlock(15, y, 3, stone)
		touched := s.BlockChanged(a, 15, y, 3, block.Air, stone)
		if len(touched) == 0 {
			t.Fatal("placing under open sky should touch at least one chunk")
		}
	}
	if a.SkyLight(15, 7, 3) == chunk.MaxLight {
		t.Error("capped column should lose full sky light")
	}
	for _, y := range []int{5, 9} {
		a.SetBlock(15, y, 3, block.Air)
		s.BlockChanged(a, 15, y, 3, stone, block.Air)
	}

	if a.Digest() != before[0] || b.Digest() != before[1] {
		t.Error("light not restored after place and remove")
	}
}

func TestFacesLightSamplesNeighbourCell(t *testing.T) {
	c := chunk.New(chunk.Index{})
	coverSky(c)
	place(c, 8, 8, 8, "stone")
	place(c, 8, 10, 8, "glowstone")
	s := New(meta)
	s.Light(c)

	fs := c.VisibleFaces(meta, 8, 8, 8)
	lights := s.FacesLight(c, 8, 8, 8, fs)
	if got := lights[block.YPos].Block; got != 13 {
		t.Errorf("top face light = %d, want 13", got)
	}
	// The stone blocks the direct path, so light reaches below it around the side.
	if got := lights[block.YNeg].Block; got != 9 {
		t.Errorf("bottom face light = %d, want 9", got)
	}

	place(c, 0, 4, 4, "stone")
	edge := s.FacesLight(c, 0, 4, 4, block.FacesState(0).Set(block.XNeg))
	if edge[block.XNeg] != c.Light(0, 4, 4) {
		t.Error("unlinked face should use the block's own cell")
	}
}
