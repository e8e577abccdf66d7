package block

// Air is the empty block.
var Air = Block{}

// Block is one voxel's material id. Value 0 is air.
type Block struct {
	Value uint16
}

// IsEmpty reports whether b is air.
func (b Block) IsEmpty() bool { return b.Value == 0 }

// MetadataProvider is the static property table for block materials.
type MetadataProvider interface {
	IsTransparent(b Block) bool
	IsMultiface(b Block) bool
	// MultifaceTexture returns the texture block drawn on face f of b.
	// Blocks that are not multiface return themselves.
	MultifaceTexture(b Block, f Face) Block
	IsLightSource(b Block) bool
	Emission(b Block) uint8
	Index(name string) (Block, bool)
	Name(b Block) string
	Count() int
	Tint(texture Block) Tint
}

// Tint selects the biome palette applied to a texture.
type Tint uint8

const (
	TintNone Tint = iota
	TintGrass
	TintFoliage
)

// IsOpaque reports whether light and face visibility are blocked by b.
func IsOpaque(meta MetadataProvider, b Block) bool {
	return !b.IsEmpty() && !meta.IsTransparent(b)
}
