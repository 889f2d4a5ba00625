package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the algorithm used for snapshot payloads.
type Compression uint8

const (
	// CompressionNone stores payloads as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// ErrCorrupt is returned when a compressed frame cannot be decoded.
var ErrCorrupt = errors.New("codec: corrupt frame")

// String returns the stable name of the algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression is the inverse of Compression.String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("codec: unknown compression %q", name)
	}
}

// ZSTD encoder/decoder pools.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Frame layout: [Algorithm uint8][Reserved 7][RawSize uint64][StoredSize uint64][Data...]
//
// StoredSize == 0 with RawSize > 0 means the data is stored raw, which
// happens when compression does not save at least 10%.
const frameHeaderSize = 24

const (
	// lz4MaxRatio bounds the expansion of one LZ4 block.
	lz4MaxRatio = 255
	// zstdPrealloc caps the buffer sized from an untrusted header.
	zstdPrealloc = 64 << 20
)

// Compress frames data with the given algorithm.
func Compress(data []byte, c Compression) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed = compressZSTD(data)
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", uint8(c))
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return appendFrame(c, data, 0), nil
	}
	return appendFrame(c, compressed, uint64(len(data))), nil
}

func appendFrame(c Compression, payload []byte, rawSize uint64) []byte {
	stored := uint64(len(payload))
	if rawSize == 0 {
		rawSize, stored = stored, 0
	}

	out := make([]byte, frameHeaderSize, frameHeaderSize+len(payload))
	out[0] = byte(c)
	binary.LittleEndian.PutUint64(out[8:], rawSize)
	binary.LittleEndian.PutUint64(out[16:], stored)
	return append(out, payload...)
}

// Decompress decodes a frame produced by Compress. The algorithm is read from
// the frame header.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrCorrupt, len(frame), frameHeaderSize)
	}

	c := Compression(frame[0])
	rawSize := binary.LittleEndian.Uint64(frame[8:])
	stored := binary.LittleEndian.Uint64(frame[16:])
	data := frame[frameHeaderSize:]

	if stored == 0 {
		if uint64(len(data)) != rawSize {
			return nil, fmt.Errorf("%w: raw frame holds %d bytes, header says %d", ErrCorrupt, len(data), rawSize)
		}
		return data, nil
	}
	if uint64(len(data)) != stored {
		return nil, fmt.Errorf("%w: frame holds %d bytes, header says %d", ErrCorrupt, len(data), stored)
	}

	switch c {
	case CompressionLZ4:
		if rawSize > stored*lz4MaxRatio {
			return nil, fmt.Errorf("%w: lz4 frame cannot expand %d bytes to %d", ErrCorrupt, stored, rawSize)
		}
		result := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(data, make([]byte, 0, min(rawSize, zstdPrealloc)))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(len(decoded)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, uint8(c))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

func compressZSTD(data []byte) []byte {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil)
}
