package gen

import "github.com/OCharnyshevich/voxel-world/internal/world/block"

const (
	treeChance = 48 // one tree root per this many forest columns
	treeRadius = 2
	treeSalt   = 600
)

// tree is a trunk rooted on the first open block of a forest column.
type tree struct {
	x, y, z int
	trunk   int
	log     block.Block
}

// treeAt returns the tree rooted at column (wx, wz), if any.
func (g *ChunkGenerator) treeAt(wx, wz int) (tree, bool) {
	h := hashInts(g.seed, int64(wx), int64(wz), treeSalt)
	if h%treeChance != 0 {
		return tree{}, false
	}
	height, biome := g.terrain.Column(wx, wz)
	if biome != Forest || height < waterLevel {
		return tree{}, false
	}

	t := tree{x: wx, y: height, z: wz, trunk: 4 + int(h>>8%3), log: g.palette.OakLog}
	if h>>16%3 == 0 {
		t.log = g.palette.BirchLog
	}
	return t, true
}

// blockAt returns the tree's block at a world cell, or air.
func (t tree) blockAt(leaves block.Block, wx, wy, wz int) block.Block {
	dx, dy, dz := wx-t.x, wy-t.y, wz-t.z
	if dy < 0 || dy > t.trunk+1 {
		return block.Air
	}
	if dx == 0 && dz == 0 && dy < t.trunk {
		return t.log
	}

	adx, adz := abs(dx), abs(dz)
	switch {
	case dy >= t.trunk-2 && dy < t.trunk:
		// Wide lower canopy without its corners.
		if adx <= treeRadius && adz <= treeRadius && !(adx == treeRadius && adz == treeRadius) {
			return leaves
		}
	case dy == t.trunk:
		if adx <= 1 && adz <= 1 {
			return leaves
		}
	case dy == t.trunk+1:
		if adx+adz <= 1 {
			return leaves
		}
	}
	return block.Air
}

// treesNear returns every tree whose canopy can reach the rectangle
// [x0, x0+w) × [z0, z0+d).
func (g *ChunkGenerator) treesNear(x0, z0, w, d int) []tree {
	var out []tree
	for x := x0 - treeRadius; x < x0+w+treeRadius; x++ {
		for z := z0 - treeRadius; z < z0+d+treeRadius; z++ {
			if t, ok := g.treeAt(x, z); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// treeBlock resolves the tree block at a cell whose base fill is air.
// Logs win over leaves where canopies overlap.
func (g *ChunkGenerator) treeBlock(trees []tree, wx, wy, wz int) block.Block {
	found := block.Air
	for _, t := range trees {
		switch b := t.blockAt(g.palette.Leaves, wx, wy, wz); {
		case b.IsEmpty():
		case b != g.palette.Leaves:
			return b
		default:
			found = b
		}
	}
	return found
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
