package chunk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

func TestWorldToChunkCoords(t *testing.T) {
	tests := []struct {
		pos  mgl32.Vec3
		want Index
	}{
		{mgl32.Vec3{0, 0, 0}, Index{0, 0, 0}},
		{mgl32.Vec3{15.9, 16, 31}, Index{0, 1, 1}},
		{mgl32.Vec3{-0.1, -16, -17}, Index{-1, -1, -2}},
	}
	for _, tt := range tests {
		if got := WorldToChunkCoords(tt.pos); got != tt.want {
			t.Errorf("WorldToChunkCoords(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestSplitWorldRoundTrip(t *testing.T) {
	for _, x := range []int{-33, -17, -16, -1, 0, 1, 15, 16, 40} {
		idx, b := SplitWorld(x, -x, x*2)
		if !InBounds(b.X, b.Y, b.Z) {
			t.Fatalf("SplitWorld(%d) local out of range: %+v", x, b)
		}
		wx, wy, wz := WorldBlock(idx, b)
		if wx != x || wy != -x || wz != x*2 {
			t.Errorf("round trip of %d gave (%d,%d,%d)", x, wx, wy, wz)
		}
	}
}

func TestBlockIndexKey(t *testing.T) {
	b := BlockIndex{3, 15, 0}
	got, err := ParseBlockIndex(b.Key())
	if err != nil {
		t.Fatalf("ParseBlockIndex: %v", err)
	}
	if got != b {
		t.Errorf("ParseBlockIndex(%q) = %+v", b.Key(), got)
	}
	if _, err := ParseBlockIndex("1,2"); err == nil {
		t.Error("short key should fail")
	}
	if _, err := ParseBlockIndex("16,0,0"); err == nil {
		t.Error("out-of-range key should fail")
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	for i := 0; i < Volume; i += 97 {
		if got := Offset(BlockAt(i)); got != i {
			t.Fatalf("Offset(BlockAt(%d)) = %d", i, got)
		}
	}
}

func TestLightChannelsIndependent(t *testing.T) {
	c := New(Index{})
	c.SetSkyLight(1, 2, 3, 15)
	c.SetBlockLight(1, 2, 3, 7)
	c.SetSkyLight(1, 2, 3, 9)

	if got := c.Light(1, 2, 3); got != (LightValue{Sky: 9, Block: 7}) {
		t.Errorf("Light = %+v", got)
	}
	if got := c.Light(1, 2, 3).Shade(397); got != 9+397*7 {
		t.Errorf("Shade = %v", got)
	}
}

func TestResolveAcrossNeighbours(t *testing.T) {
	a := New(Index{0, 0, 0})
	b := New(Index{1, 0, 0})
	a.SetNeighbor(block.XPos, b)
	b.SetNeighbor(block.XNeg, a)
	b.SetBlock(0, 4, 4, block.Block{Value: 9})

	n, x, y, z := a.Resolve(Size, 4, 4)
	if n != b || x != 0 || y != 4 || z != 4 {
		t.Fatalf("Resolve = %p (%d,%d,%d), want %p (0,4,4)", n, x, y, z, b)
	}
	if n, _, _, _ := a.Resolve(-1, 0, 0); n != nil {
		t.Error("unlinked side should resolve to nil")
	}
}

func TestVisibleFaces(t *testing.T) {
	meta := block.MustDefault()
	stone := meta.MustIndex("stone")
	glass := meta.MustIndex("glass")

	c := New(Index{})
	c.SetBlock(5, 5, 5, stone)
	if got := c.VisibleFaces(meta, 5, 5, 5); got != block.AllFaces {
		t.Errorf("floating block faces = %06b, want all", got)
	}

	c.SetBlock(5, 6, 5, stone)
	c.SetBlock(4, 5, 5, glass)
	fs := c.VisibleFaces(meta, 5, 5, 5)
	if fs.Has(block.YPos) {
		t.Error("face against solid block should be hidden")
	}
	if !fs.Has(block.XNeg) {
		t.Error("face against glass should be visible")
	}

	c.SetBlock(3, 5, 5, glass)
	if c.VisibleFaces(meta, 4, 5, 5).Has(block.XNeg) {
		t.Error("glass against glass should be hidden")
	}

	// Boundary faces with no linked neighbour count as exposed.
	c.SetBlock(0, 0, 0, stone)
	fs = c.VisibleFaces(meta, 0, 0, 0)
	if !fs.Has(block.XNeg) || !fs.Has(block.YNeg) || !fs.Has(block.ZNeg) {
		t.Errorf("boundary faces = %06b", fs)
	}
	if c.VisibleFaces(meta, 1, 1, 1).Any() {
		t.Error("air should have no faces")
	}
}

func TestLightSources(t *testing.T) {
	meta := block.MustDefault()
	c := New(Index{})
	c.SetBlock(8, 8, 8, meta.MustIndex("glowstone"))
	c.SetBlock(1, 1, 1, meta.MustIndex("stone"))

	if n := c.ScanLightSources(meta); n != 1 {
		t.Fatalf("ScanLightSources = %d, want 1", n)
	}
	src := c.LightSources()
	if len(src) != 1 || src[0] != (BlockIndex{8, 8, 8}) {
		t.Errorf("LightSources = %v", src)
	}
	c.RemoveLightSource(BlockIndex{8, 8, 8})
	if len(c.LightSources()) != 0 {
		t.Error("RemoveLightSource did not remove")
	}
}

func TestDigestAndDispose(t *testing.T) {
	c := New(Index{})
	d0 := c.Digest()
	c.SetBlock(0, 0, 0, block.Block{Value: 2})
	if c.Digest() == d0 {
		t.Error("digest should change with blocks")
	}
	c.SetBlock(0, 0, 0, block.Air)
	if c.Digest() != d0 {
		t.Error("digest should return to original")
	}

	n := New(Index{1, 0, 0})
	c.SetNeighbor(block.XPos, n)
	c.SetState(Ready)
	c.Dispose()
	if !c.Disposed() || c.State() != Unloaded || c.Neighbor(block.XPos) != nil {
		t.Error("Dispose should clear links and state")
	}
}
