package gen

import (
	"fmt"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
)

const (
	bedrockDepth = -100
	waterLevel   = 36
	grassLine    = 50
	snowLine     = 60
	sandDepth    = 6
)

// Palette holds the block ids the generator places.
type Palette struct {
	Bedrock, Stone, Dirt, Grass, Sand, Sandstone, Snow, Water block.Block
	OakLog, BirchLog, Leaves                                  block.Block
}

// NewPalette resolves the generator's blocks by name.
func NewPalette(meta block.MetadataProvider) (*Palette, error) {
	p := &Palette{}
	fields := []struct {
		name string
		dst  *block.Block
	}{
		{"bedrock", &p.Bedrock},
		{"stone", &p.Stone},
		{"dirt", &p.Dirt},
		{"grass", &p.Grass},
		{"sand", &p.Sand},
		{"sandstone", &p.Sandstone},
		{"snow", &p.Snow},
		{"water", &p.Water},
		{"oak_log", &p.OakLog},
		{"birch_log", &p.BirchLog},
		{"leaves", &p.Leaves},
	}
	for _, f := range fields {
		b, ok := meta.Index(f.name)
		if !ok {
			return nil, fmt.Errorf("block pack missing %q", f.name)
		}
		*f.dst = b
	}
	return p, nil
}

// Fill decides the material at world height y of a column whose first open
// y is terrainHeight. rng only varies surface texture.
func (p *Palette) Fill(terrainHeight, y int, biome Biome, rng *RNG) block.Block {
	if y < bedrockDepth {
		return p.Bedrock
	}
	if y >= terrainHeight {
		if biome == River && y < waterLevel {
			return p.Water
		}
		return block.Air
	}

	top := y == terrainHeight-1
	switch biome {
	case River:
		switch {
		case top:
			return p.Sand
		case y > terrainHeight-sandDepth:
			if rng.Chance(2) {
				return p.Sandstone
			}
			return p.Sand
		default:
			return p.stoneOrDirt(rng)
		}
	case Forest:
		if top {
			return p.Grass
		}
		return p.stoneOrDirt(rng)
	case Mountain:
		if top {
			switch {
			case y < grassLine:
				return p.Grass
			case y >= snowLine:
				return p.Snow
			}
		}
		return p.Stone
	default:
		return p.Stone
	}
}

func (p *Palette) stoneOrDirt(rng *RNG) block.Block {
	if rng.Chance(2) {
		return p.Dirt
	}
	return p.Stone
}
