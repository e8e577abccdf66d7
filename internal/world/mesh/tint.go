package mesh

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

var white = mgl32.Vec3{1, 1, 1}

var grassColors = [8]mgl32.Vec3{
	{0.55, 0.78, 0.33},
	{0.49, 0.74, 0.30},
	{0.60, 0.80, 0.38},
	{0.45, 0.70, 0.28},
	{0.52, 0.76, 0.40},
	{0.58, 0.74, 0.30},
	{0.47, 0.72, 0.35},
	{0.62, 0.82, 0.36},
}

var foliageColors = [8]mgl32.Vec3{
	{0.38, 0.64, 0.22},
	{0.33, 0.58, 0.20},
	{0.42, 0.66, 0.26},
	{0.30, 0.55, 0.18},
	{0.36, 0.62, 0.28},
	{0.44, 0.60, 0.20},
	{0.34, 0.60, 0.24},
	{0.40, 0.68, 0.22},
}

// Tinter colours grass and foliage textures by a hash of the coarse grid
// cell containing the block, so the colour is stable per column and only
// changes on grid lines.
type Tinter struct {
	meta block.MetadataProvider
	grid int
}

// NewTinter creates a Tinter with the given grid size in blocks.
func NewTinter(meta block.MetadataProvider, grid int) *Tinter {
	if grid <= 0 {
		grid = 64
	}
	return &Tinter{meta: meta, grid: grid}
}

// Color returns the tint for texture drawn at world column (wx, wz).
func (t *Tinter) Color(texture block.Block, wx, wz int) mgl32.Vec3 {
	var palette *[8]mgl32.Vec3
	switch t.meta.Tint(texture) {
	case block.TintGrass:
		palette = &grassColors
	case block.TintFoliage:
		palette = &foliageColors
	default:
		return white
	}

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(floorDiv(wx, t.grid)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(floorDiv(wz, t.grid)))
	return palette[xxhash.Sum64(buf[:])%uint64(len(palette))]
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
