package blockdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tint names the biome palette a texture is coloured with.
type Tint string

const (
	TintNone    Tint = ""
	TintGrass   Tint = "grass"
	TintFoliage Tint = "foliage"
)

// Definition describes one block material or face texture.
type Definition struct {
	Name        string            `yaml:"name"`
	Transparent bool              `yaml:"transparent"`
	Emission    uint8             `yaml:"emission"`
	Faces       map[string]string `yaml:"faces"` // top, bottom, side, front, back, left, right
	Tint        Tint              `yaml:"tint"`
}

// Pack is an ordered list of block definitions. A definition's material id
// is its position in Blocks plus one; id 0 is reserved for air.
type Pack struct {
	Name   string       `yaml:"name"`
	Blocks []Definition `yaml:"blocks"`
}

// Parse decodes a YAML pack and validates it.
func Parse(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse block pack: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads and parses a YAML pack from disk.
func LoadFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block pack %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks for duplicate names, dangling face references and
// out-of-range emission levels.
func (p *Pack) Validate() error {
	if len(p.Blocks) >= 1<<16-1 {
		return fmt.Errorf("block pack %q: too many blocks (%d)", p.Name, len(p.Blocks))
	}
	seen := make(map[string]bool, len(p.Blocks))
	for _, d := range p.Blocks {
		if d.Name == "" {
			return fmt.Errorf("block pack %q: definition without name", p.Name)
		}
		if d.Name == "air" {
			return fmt.Errorf("block pack %q: air is implicit", p.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("block pack %q: duplicate block %q", p.Name, d.Name)
		}
		if d.Emission > 15 {
			return fmt.Errorf("block pack %q: block %q emission %d > 15", p.Name, d.Name, d.Emission)
		}
		seen[d.Name] = true
	}
	for _, d := range p.Blocks {
		for face, tex := range d.Faces {
			if !seen[tex] {
				return fmt.Errorf("block pack %q: block %q face %s references unknown texture %q", p.Name, d.Name, face, tex)
			}
		}
	}
	return nil
}
