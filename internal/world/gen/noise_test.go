package gen

import (
	"math"
	"testing"
)

func TestNoiseFieldDeterministic(t *testing.T) {
	f1 := newField(newSimplex(12345), 0.01, 4, FBm)
	f2 := newField(newSimplex(12345), 0.01, 4, FBm)

	for i := 0; i < 100; i++ {
		x := float64(i) * 13.1
		z := float64(i) * 7.7
		if f1.Sample(x, z) != f2.Sample(x, z) {
			t.Fatalf("Sample not deterministic at (%f, %f)", x, z)
		}
	}
}

func TestNoiseFieldRange(t *testing.T) {
	fields := map[string]*NoiseField{
		"simplex fbm":    newField(newSimplex(42), 0.005, 3, FBm),
		"simplex ridged": newField(newSimplex(42), 0.005, 3, Ridged),
		"perlin ridged":  newField(newPerlin(42), 0.01, 3, Ridged),
	}
	for name, f := range fields {
		for i := 0; i < 10000; i++ {
			x := float64(i)*3.7 - 5000
			z := float64(i)*5.3 - 5000
			v := f.Sample(x, z)
			if v < -1.0 || v > 1.0 {
				t.Fatalf("%s Sample(%f, %f) = %f, out of [-1,1]", name, x, z, v)
			}
		}
	}
}

func TestDifferentSeedsDifferentNoise(t *testing.T) {
	f1 := newField(newSimplex(1), 0.01, 2, FBm)
	f2 := newField(newSimplex(2), 0.01, 2, FBm)

	different := false
	for i := 0; i < 100; i++ {
		x := float64(i) * 10.1
		z := float64(i) * 20.2
		if f1.Sample(x, z) != f2.Sample(x, z) {
			different = true
			break
		}
	}
	if !different {
		t.Error("different seeds should produce different noise")
	}
}

func TestNoiseFieldSmoothness(t *testing.T) {
	f := newField(newSimplex(456), 0.001, 3, FBm)

	// Adjacent blocks should not differ by more than some reasonable amount.
	prev := f.Sample(0, 0)
	for i := 1; i < 1000; i++ {
		curr := f.Sample(float64(i), 0)
		if diff := math.Abs(curr - prev); diff > 0.05 {
			t.Fatalf("noise changed too rapidly at x=%d: diff=%f", i, diff)
		}
		prev = curr
	}
}
