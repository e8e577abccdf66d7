package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

// Atlas maps a texture and a face-local UV into atlas UV space.
type Atlas interface {
	UV(texture block.Block, local mgl32.Vec2) mgl32.Vec2
}

// GridAtlas lays textures out row by row in a Columns × Rows grid, texture
// id n occupying tile n-1.
type GridAtlas struct {
	Columns, Rows int
}

func (a GridAtlas) UV(texture block.Block, local mgl32.Vec2) mgl32.Vec2 {
	cols, rows := max(a.Columns, 1), max(a.Rows, 1)
	tile := max(int(texture.Value)-1, 0)
	col, row := tile%cols, (tile/cols)%rows
	return mgl32.Vec2{
		(float32(col) + local.X()) / float32(cols),
		(float32(row) + local.Y()) / float32(rows),
	}
}
