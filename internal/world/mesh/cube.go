package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

// VerticesPerFace is two triangles.
const VerticesPerFace = 6

// faceUVs is the texture coordinate order shared by every face.
var faceUVs = [VerticesPerFace]mgl32.Vec2{
	{1, 1}, {1, 0}, {0, 1},
	{1, 0}, {0, 0}, {0, 1},
}

// faceCorners holds, per face, the unit-cube corner of each vertex. Each
// face is wound counter-clockwise when seen from outside the cube.
var faceCorners = buildFaceCorners()

func buildFaceCorners() [block.FaceCount][VerticesPerFace]mgl32.Vec3 {
	frames := [block.FaceCount]struct{ origin, right, up mgl32.Vec3 }{
		block.ZPos: {mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		block.ZNeg: {mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		block.YPos: {mgl32.Vec3{0, 1, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		block.YNeg: {mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		block.XPos: {mgl32.Vec3{1, 0, 1}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		block.XNeg: {mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	}

	var out [block.FaceCount][VerticesPerFace]mgl32.Vec3
	for f, fr := range frames {
		for i, uv := range faceUVs {
			// v runs top to bottom in texture space.
			out[f][i] = fr.origin.Add(fr.right.Mul(uv.X())).Add(fr.up.Mul(1 - uv.Y()))
		}
	}
	return out
}

// Normal returns the outward unit normal of f.
func Normal(f block.Face) mgl32.Vec3 {
	dx, dy, dz := f.Offset()
	return mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
}
