package block

// Face is one of the six axis-aligned cube faces. The order matches the
// neighbour slots of a chunk and the vertex table of the mesher.
type Face uint8

const (
	ZPos Face = iota
	ZNeg
	YPos
	YNeg
	XPos
	XNeg

	FaceCount = 6
)

var faceOffsets = [FaceCount][3]int{
	ZPos: {0, 0, 1},
	ZNeg: {0, 0, -1},
	YPos: {0, 1, 0},
	YNeg: {0, -1, 0},
	XPos: {1, 0, 0},
	XNeg: {-1, 0, 0},
}

var faceNames = [FaceCount]string{"z+", "z-", "y+", "y-", "x+", "x-"}

// Faces lists every face in table order.
var Faces = [FaceCount]Face{ZPos, ZNeg, YPos, YNeg, XPos, XNeg}

// Offset returns the unit step across f.
func (f Face) Offset() (dx, dy, dz int) {
	o := faceOffsets[f]
	return o[0], o[1], o[2]
}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face { return f ^ 1 }

func (f Face) String() string {
	if f >= FaceCount {
		return "invalid"
	}
	return faceNames[f]
}

// FacesState is a bitmask of exposed faces.
type FacesState uint8

// AllFaces has every face bit set.
const AllFaces FacesState = 1<<FaceCount - 1

// Has reports whether f is set.
func (s FacesState) Has(f Face) bool { return s&(1<<f) != 0 }

// Set returns s with f added.
func (s FacesState) Set(f Face) FacesState { return s | 1<<f }

// Any reports whether at least one face is set.
func (s FacesState) Any() bool { return s != 0 }

// Count returns the number of set faces.
func (s FacesState) Count() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}
