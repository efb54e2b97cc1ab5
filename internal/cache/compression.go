// internal/cache/compression.go
package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	formatRaw  byte = 0
	formatZstd byte = 1
)

// compressor frames payloads with a one-byte format tag and zstd-encodes
// anything at or above minSize.
type compressor struct {
	minSize int
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func newCompressor(minSize int) (*compressor, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &compressor{minSize: minSize, enc: enc, dec: dec}, nil
}

func (c *compressor) encode(payload []byte) (stored []byte, compressed bool) {
	if len(payload) < c.minSize {
		stored = make([]byte, 1+len(payload))
		stored[0] = formatRaw
		copy(stored[1:], payload)
		return stored, false
	}

	stored = c.enc.EncodeAll(payload, []byte{formatZstd})
	return stored, true
}

func (c *compressor) decode(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("empty cache record")
	}
	switch stored[0] {
	case formatRaw:
		return append([]byte(nil), stored[1:]...), nil
	case formatZstd:
		return c.dec.DecodeAll(stored[1:], nil)
	default:
		return nil, fmt.Errorf("unknown cache record format %d", stored[0])
	}
}

func (c *compressor) close() {
	c.enc.Close()
	c.dec.Close()
}
