package gen

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// RNG is a small deterministic generator for surface texture variety.
type RNG struct {
	state uint64
}

// CellRNG seeds an RNG from the world seed and a block position, so the
// same cell always draws the same numbers regardless of generation order.
func CellRNG(seed int64, x, y, z int) *RNG {
	return &RNG{state: hashInts(seed, int64(x), int64(y), int64(z))}
}

func (r *RNG) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	return int((r.next() >> 33) % uint64(n))
}

// Chance reports true roughly once every n calls.
func (r *RNG) Chance(n int) bool { return r.Intn(n) == 0 }

func hashInts(vals ...int64) uint64 {
	var buf [8 * 5]byte
	b := buf[:0]
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint64(b, uint64(v))
	}
	return xxhash.Sum64(b)
}
