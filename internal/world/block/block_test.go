package block

import "testing"

func TestFaceOpposite(t *testing.T) {
	for _, f := range Faces {
		o := f.Opposite()
		dx, dy, dz := f.Offset()
		ox, oy, oz := o.Offset()
		if dx != -ox || dy != -oy || dz != -oz {
			t.Errorf("%s opposite %s: offsets (%d,%d,%d) vs (%d,%d,%d)", f, o, dx, dy, dz, ox, oy, oz)
		}
		if o.Opposite() != f {
			t.Errorf("%s: double opposite = %s", f, o.Opposite())
		}
	}
}

func TestFacesState(t *testing.T) {
	var s FacesState
	if s.Any() {
		t.Fatal("zero state should have no faces")
	}
	s = s.Set(YPos).Set(XNeg)
	if !s.Has(YPos) || !s.Has(XNeg) || s.Has(ZPos) {
		t.Errorf("unexpected bits %06b", s)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
	if AllFaces.Count() != FaceCount {
		t.Errorf("AllFaces.Count() = %d", AllFaces.Count())
	}
}

func TestRegistryDefaultPack(t *testing.T) {
	r := MustDefault()

	if r.Name(Air) != "air" || !r.IsTransparent(Air) {
		t.Error("air should be named and transparent")
	}

	grass := r.MustIndex("grass")
	if !r.IsMultiface(grass) {
		t.Fatal("grass should be multiface")
	}
	tests := []struct {
		face Face
		want string
	}{
		{YPos, "grass_top"},
		{YNeg, "dirt"},
		{ZPos, "grass_side"},
		{XNeg, "grass_side"},
	}
	for _, tt := range tests {
		if got := r.Name(r.MultifaceTexture(grass, tt.face)); got != tt.want {
			t.Errorf("grass face %s = %s, want %s", tt.face, got, tt.want)
		}
	}

	stone := r.MustIndex("stone")
	if r.IsMultiface(stone) || r.MultifaceTexture(stone, YPos) != stone {
		t.Error("stone should texture every face with itself")
	}
	if !IsOpaque(r, stone) || IsOpaque(r, r.MustIndex("glass")) || IsOpaque(r, Air) {
		t.Error("opacity mismatch")
	}

	glow := r.MustIndex("glowstone")
	if !r.IsLightSource(glow) || r.Emission(glow) != 14 {
		t.Errorf("glowstone emission = %d", r.Emission(glow))
	}
	if r.Tint(r.MustIndex("grass_top")) != TintGrass || r.Tint(r.MustIndex("leaves")) != TintFoliage {
		t.Error("tint mismatch")
	}
	if r.Tint(stone) != TintNone {
		t.Error("stone should not be tinted")
	}
}

func TestRegistryUnknownBlock(t *testing.T) {
	r := MustDefault()
	b := Block{Value: uint16(r.Count() + 10)}
	if r.IsTransparent(b) || r.IsLightSource(b) || r.Name(b) != "" {
		t.Error("unknown block should be opaque, dark and nameless")
	}
	if _, ok := r.Index("no_such_block"); ok {
		t.Error("Index should miss unknown names")
	}
}
