// Package compress provides the payload codecs used by the dataset
// artifact: none, S2 and LZ4 block compression.
package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

// ID identifies a codec inside the artifact header.
type ID uint8

const (
	None ID = 0x1
	S2   ID = 0x2
	LZ4  ID = 0x3
)

func (id ID) String() string {
	switch id {
	case None:
		return "none"
	case S2:
		return "s2"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Codec compresses and decompresses chunk payloads. The caller records
// the raw length alongside the compressed payload; block codecs need it
// to size the decompression buffer exactly.
type Codec interface {
	ID() ID
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, rawLen int) ([]byte, error)
}

// ByName resolves a codec from its configuration name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "none":
		return NoopCodec{}, nil
	case "s2":
		return S2Codec{}, nil
	case "lz4":
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown compression codec '%s'", name)
	}
}

// ByID resolves a codec from its artifact header ID.
func ByID(id ID) (Codec, error) {
	switch id {
	case None:
		return NoopCodec{}, nil
	case S2:
		return S2Codec{}, nil
	case LZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown compression codec id 0x%x", uint8(id))
	}
}

// NoopCodec passes payloads through unchanged.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

func (NoopCodec) ID() ID { return None }

func (NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (NoopCodec) Decompress(data []byte, rawLen int) ([]byte, error) {
	return data, nil
}

// S2Codec compresses payloads with S2 block compression.
type S2Codec struct{}

var _ Codec = S2Codec{}

func (S2Codec) ID() ID { return S2 }

func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Encode(nil, data), nil
}

func (S2Codec) Decompress(data []byte, rawLen int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Decode(nil, data)
}

// LZ4Codec compresses payloads with LZ4 block compression.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

func (LZ4Codec) ID() ID { return LZ4 }

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input; store it raw with a marker-free copy.
		return append([]byte(nil), data...), nil
	}
	return dst[:n], nil
}

func (LZ4Codec) Decompress(data []byte, rawLen int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) == rawLen {
		// Stored raw because compression did not help.
		return data, nil
	}
	dst := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
