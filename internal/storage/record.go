package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// IndexData is the serializable form of a chunk index.
type IndexData struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Record holds every stored edit of one chunk, keyed by "x,y,z" block
// coordinates.
type Record struct {
	ChunkIndex         IndexData         `json:"chunk_index"`
	BlockModifications map[string]uint16 `json:"block_modifications"`
}

// NewRecord returns an empty record for idx.
func NewRecord(idx chunk.Index) *Record {
	return &Record{
		ChunkIndex:         IndexData{X: idx.X, Y: idx.Y, Z: idx.Z},
		BlockModifications: make(map[string]uint16),
	}
}

// Index returns the chunk index the record belongs to.
func (r *Record) Index() chunk.Index {
	return chunk.Index{X: r.ChunkIndex.X, Y: r.ChunkIndex.Y, Z: r.ChunkIndex.Z}
}

// Modifications decodes the stored edits. Any malformed key makes the whole
// record invalid.
func (r *Record) Modifications() (map[chunk.BlockIndex]block.Block, error) {
	out := make(map[chunk.BlockIndex]block.Block, len(r.BlockModifications))
	for key, v := range r.BlockModifications {
		b, err := chunk.ParseBlockIndex(key)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", r.Index(), err)
		}
		out[b] = block.Block{Value: v}
	}
	return out, nil
}

// Codec encodes records as JSON, optionally zstd compressed.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec returns a codec for compression "none" (or "") or "zstd".
func NewCodec(compression string) (*Codec, error) {
	switch compression {
	case "", "none":
		return &Codec{}, nil
	case "zstd":
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			enc.Close()
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		return &Codec{enc: enc, dec: dec}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
}

// Compressed reports whether records are zstd compressed.
func (c *Codec) Compressed() bool { return c.enc != nil }

// Marshal encodes rec.
func (c *Codec) Marshal(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if c.enc == nil {
		return data, nil
	}
	return c.enc.EncodeAll(data, nil), nil
}

// Unmarshal decodes a record produced by Marshal.
func (c *Codec) Unmarshal(data []byte) (*Record, error) {
	if c.dec != nil {
		raw, err := c.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress record: %w", err)
		}
		data = raw
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if rec.BlockModifications == nil {
		rec.BlockModifications = make(map[string]uint16)
	}
	return &rec, nil
}

// Close releases the zstd state.
func (c *Codec) Close() {
	if c.enc != nil {
		c.enc.Close()
		c.dec.Close()
	}
}
