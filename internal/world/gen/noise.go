package gen

import (
	"math"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// source2D is a coherent 2D noise function returning values in about [-1, 1].
type source2D interface {
	Eval2(x, y float64) float64
}

type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Eval2(x, y float64) float64 { return s.p.Noise2D(x, y) }

func newSimplex(seed int64) source2D { return opensimplex.New(seed) }

func newPerlin(seed int64) source2D {
	return perlinSource{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// Fractal selects how octaves are combined.
type Fractal uint8

const (
	// FBm sums octaves as they are.
	FBm Fractal = iota
	// Ridged folds each octave around zero so creases become crests.
	Ridged
)

// NoiseField layers octaves of a seeded noise source at a base frequency.
type NoiseField struct {
	src       source2D
	frequency float64
	octaves   int
	gain      float64
	fractal   Fractal
}

func newField(src source2D, frequency float64, octaves int, fractal Fractal) *NoiseField {
	return &NoiseField{
		src:       src,
		frequency: frequency,
		octaves:   octaves,
		gain:      0.5,
		fractal:   fractal,
	}
}

// Sample returns the field value at world coordinates, in [-1, 1].
func (f *NoiseField) Sample(x, z float64) float64 {
	var total, maxVal float64
	frequency := f.frequency
	amplitude := 1.0

	for range f.octaves {
		n := clamp(f.src.Eval2(x*frequency, z*frequency), -1, 1)
		if f.fractal == Ridged {
			n = 1 - 2*math.Abs(n)
		}
		total += n * amplitude
		maxVal += amplitude
		amplitude *= f.gain
		frequency *= 2.0
	}
	return total / maxVal
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
