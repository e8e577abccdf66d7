package block

import (
	"fmt"

	"github.com/OCharnyshevich/voxel-world/pkg/blockdata"
)

type properties struct {
	name        string
	transparent bool
	emission    uint8
	multiface   bool
	faces       [FaceCount]Block
	tint        Tint
}

// Registry is a MetadataProvider backed by a block definition pack.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	props  []properties // indexed by material id, 0 = air
	byName map[string]Block
}

// NewRegistry builds a Registry from p.
func NewRegistry(p *blockdata.Pack) (*Registry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		props:  make([]properties, len(p.Blocks)+1),
		byName: make(map[string]Block, len(p.Blocks)+1),
	}
	r.props[0] = properties{name: "air", transparent: true}
	r.byName["air"] = Air

	for i, d := range p.Blocks {
		id := Block{Value: uint16(i + 1)}
		r.byName[d.Name] = id
		r.props[id.Value] = properties{
			name:        d.Name,
			transparent: d.Transparent,
			emission:    d.Emission,
			tint:        tintOf(d.Tint),
		}
	}

	for i, d := range p.Blocks {
		pr := &r.props[i+1]
		self := Block{Value: uint16(i + 1)}
		for _, f := range Faces {
			pr.faces[f] = self
		}
		if len(d.Faces) == 0 {
			continue
		}
		pr.multiface = true
		for key, tex := range d.Faces {
			b := r.byName[tex]
			switch key {
			case "top":
				pr.faces[YPos] = b
			case "bottom":
				pr.faces[YNeg] = b
			case "side":
				pr.faces[ZPos], pr.faces[ZNeg], pr.faces[XPos], pr.faces[XNeg] = b, b, b, b
			}
		}
		// Explicit sides win over "side".
		for key, tex := range d.Faces {
			b := r.byName[tex]
			switch key {
			case "front":
				pr.faces[ZPos] = b
			case "back":
				pr.faces[ZNeg] = b
			case "right":
				pr.faces[XPos] = b
			case "left":
				pr.faces[XNeg] = b
			case "top", "bottom", "side":
			default:
				return nil, fmt.Errorf("block %q: unknown face %q", d.Name, key)
			}
		}
	}
	return r, nil
}

// MustDefault returns a Registry over the embedded default pack.
func MustDefault() *Registry {
	p, err := blockdata.Load(blockdata.DefaultPackName)
	if err != nil {
		panic(err)
	}
	r, err := NewRegistry(p)
	if err != nil {
		panic(err)
	}
	return r
}

func tintOf(t blockdata.Tint) Tint {
	switch t {
	case blockdata.TintGrass:
		return TintGrass
	case blockdata.TintFoliage:
		return TintFoliage
	default:
		return TintNone
	}
}

func (r *Registry) get(b Block) (*properties, bool) {
	if int(b.Value) >= len(r.props) {
		return nil, false
	}
	return &r.props[b.Value], true
}

func (r *Registry) IsTransparent(b Block) bool {
	p, ok := r.get(b)
	return ok && p.transparent
}

func (r *Registry) IsMultiface(b Block) bool {
	p, ok := r.get(b)
	return ok && p.multiface
}

func (r *Registry) MultifaceTexture(b Block, f Face) Block {
	p, ok := r.get(b)
	if !ok || f >= FaceCount {
		return b
	}
	return p.faces[f]
}

func (r *Registry) IsLightSource(b Block) bool {
	return r.Emission(b) > 0
}

func (r *Registry) Emission(b Block) uint8 {
	p, ok := r.get(b)
	if !ok {
		return 0
	}
	return p.emission
}

func (r *Registry) Index(name string) (Block, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// MustIndex is Index for names known to exist in the loaded pack.
func (r *Registry) MustIndex(name string) Block {
	b, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("block %q not registered", name))
	}
	return b
}

func (r *Registry) Name(b Block) string {
	p, ok := r.get(b)
	if !ok {
		return ""
	}
	return p.name
}

// Count returns the number of materials including air.
func (r *Registry) Count() int { return len(r.props) }

func (r *Registry) Tint(texture Block) Tint {
	p, ok := r.get(texture)
	if !ok {
		return TintNone
	}
	return p.tint
}
