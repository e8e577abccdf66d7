package gen

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// Biome is the terrain category of a column.
type Biome uint8

const (
	River Biome = iota
	Forest
	Mountain
)

func (b Biome) String() string {
	switch b {
	case River:
		return "river"
	case Forest:
		return "forest"
	case Mountain:
		return "mountain"
	default:
		return "unknown"
	}
}

// TerrainData is the heightmap and biome map of one chunk footprint,
// indexed [x][z]. Heights are the first open world y of each column.
type TerrainData struct {
	Heights      [chunk.Size][chunk.Size]int
	Biomes       [chunk.Size][chunk.Size]Biome
	MaxElevation int
}

// Terrain samples column heights and biomes. Implementations must be pure
// functions of their construction parameters and the world coordinates.
type Terrain interface {
	Column(wx, wz int) (height int, biome Biome)
	GenerateTerrainData(position mgl32.Vec3) *TerrainData
}

func generateTerrainData(t Terrain, position mgl32.Vec3) *TerrainData {
	td := &TerrainData{MaxElevation: math.MinInt}
	ox, oz := int(position.X()), int(position.Z())
	for x := 0; x < chunk.Size; x++ {
		for z := 0; z < chunk.Size; z++ {
			h, b := t.Column(ox+x, oz+z)
			td.Heights[x][z] = h
			td.Biomes[x][z] = b
			td.MaxElevation = max(td.MaxElevation, h)
		}
	}
	return td
}

const (
	riverThreshold  = 0.05
	forestThreshold = 1.2
	baseHeight      = 30
)

// TerrainGenerator produces River, Forest and Mountain terrain from four
// seeded noise fields.
type TerrainGenerator struct {
	terrain  *NoiseField
	forest   *NoiseField
	mountain *NoiseField
	river    *NoiseField
}

// NewTerrainGenerator creates a TerrainGenerator from a seed.
func NewTerrainGenerator(seed int64) *TerrainGenerator {
	return &TerrainGenerator{
		terrain:  newField(newSimplex(seed), 0.001, 3, FBm),
		forest:   newField(newPerlin(seed+1), 0.01, 3, Ridged),
		mountain: newField(newSimplex(seed+2), 0.005, 3, Ridged),
		river:    newField(newSimplex(seed+3), 0.001, 3, Ridged),
	}
}

// Column picks the biome from the magnitude of the base terrain field and
// then the height from that biome's own field.
func (g *TerrainGenerator) Column(wx, wz int) (int, Biome) {
	x, z := float64(wx), float64(wz)
	n := math.Abs(g.terrain.Sample(x, z) + 0.5)

	switch {
	case n < riverThreshold:
		return baseHeight + int(math.Abs(8*(g.river.Sample(x, z)+0.8))), River
	case n < forestThreshold:
		return baseHeight + int(math.Abs(10*(g.forest.Sample(x, z)+0.8))), Forest
	default:
		return baseHeight + int(math.Abs(30*(g.mountain.Sample(x, z)+0.8))), Mountain
	}
}

// GenerateTerrainData samples every column of the chunk at position.
func (g *TerrainGenerator) GenerateTerrainData(position mgl32.Vec3) *TerrainData {
	return generateTerrainData(g, position)
}

// FlatTerrain is a constant-height terrain of a single biome.
type FlatTerrain struct {
	Height int
	Biome  Biome
}

// NewFlatTerrain creates grass-over-stone flat terrain whose first open y is height.
func NewFlatTerrain(height int) *FlatTerrain {
	return &FlatTerrain{Height: height, Biome: Mountain}
}

func (f *FlatTerrain) Column(_, _ int) (int, Biome) { return f.Height, f.Biome }

func (f *FlatTerrain) GenerateTerrainData(position mgl32.Vec3) *TerrainData {
	return generateTerrainData(f, position)
}
