package chunk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

const (
	// Size is the edge length of a chunk in blocks.
	Size   = 16
	Volume = Size * Size * Size
)

// Index identifies a chunk on the chunk grid.
type Index struct {
	X, Y, Z int
}

func (i Index) String() string { return fmt.Sprintf("(%d,%d,%d)", i.X, i.Y, i.Z) }

// Add returns i offset by o.
func (i Index) Add(o Index) Index { return Index{i.X + o.X, i.Y + o.Y, i.Z + o.Z} }

// Neighbor returns the index adjacent to i across f.
func (i Index) Neighbor(f block.Face) Index {
	dx, dy, dz := f.Offset()
	return Index{i.X + dx, i.Y + dy, i.Z + dz}
}

// Manhattan returns |x|+|y|+|z|.
func (i Index) Manhattan() int { return abs(i.X) + abs(i.Y) + abs(i.Z) }

// Chebyshev returns the largest per-axis distance between i and o.
func (i Index) Chebyshev(o Index) int {
	return max(abs(i.X-o.X), abs(i.Y-o.Y), abs(i.Z-o.Z))
}

// Origin returns the world-space position of the chunk's (0,0,0) block.
func (i Index) Origin() mgl32.Vec3 {
	return mgl32.Vec3{float32(i.X * Size), float32(i.Y * Size), float32(i.Z * Size)}
}

// BlockIndex is a block coordinate local to a chunk, each axis in [0,Size).
type BlockIndex struct {
	X, Y, Z int
}

// Key is the persisted form of a local coordinate.
func (b BlockIndex) Key() string { return fmt.Sprintf("%d,%d,%d", b.X, b.Y, b.Z) }

// ParseBlockIndex parses a Key back into a BlockIndex.
func ParseBlockIndex(key string) (BlockIndex, error) {
	var b BlockIndex
	if _, err := fmt.Sscanf(key, "%d,%d,%d", &b.X, &b.Y, &b.Z); err != nil {
		return BlockIndex{}, fmt.Errorf("parse block index %q: %w", key, err)
	}
	if !InBounds(b.X, b.Y, b.Z) {
		return BlockIndex{}, fmt.Errorf("block index %q out of range", key)
	}
	return b, nil
}

// InBounds reports whether local coordinates fall inside a chunk.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size && z >= 0 && z < Size
}

func offset(x, y, z int) int { return (y*Size+z)*Size + x }

// WorldToChunkCoords returns the chunk containing world position p.
func WorldToChunkCoords(p mgl32.Vec3) Index {
	return Index{
		floorDiv(floor(p.X()), Size),
		floorDiv(floor(p.Y()), Size),
		floorDiv(floor(p.Z()), Size),
	}
}

// WorldToBlockCoords splits world position p into chunk and local block.
func WorldToBlockCoords(p mgl32.Vec3) (Index, BlockIndex) {
	return SplitWorld(floor(p.X()), floor(p.Y()), floor(p.Z()))
}

// SplitWorld splits integer world block coordinates into chunk and local block.
func SplitWorld(x, y, z int) (Index, BlockIndex) {
	return Index{floorDiv(x, Size), floorDiv(y, Size), floorDiv(z, Size)},
		BlockIndex{mod(x, Size), mod(y, Size), mod(z, Size)}
}

// WorldBlock returns the integer world coordinates of a local block.
func WorldBlock(i Index, b BlockIndex) (x, y, z int) {
	return i.X*Size + b.X, i.Y*Size + b.Y, i.Z*Size + b.Z
}

// BlockIndexToWorldPosition returns the world-space minimum corner of a block.
func BlockIndexToWorldPosition(i Index, b BlockIndex) mgl32.Vec3 {
	x, y, z := WorldBlock(i, b)
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

func floor(v float32) int { return int(math.Floor(float64(v))) }

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
