package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manifest struct {
	Name    string `json:"name"`
	Version uint64 `json:"version"`
	Width   uint   `json:"width"`
}

func TestCodecs(t *testing.T) {
	in := manifest{Name: "users", Version: 7, Width: 64}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out manifest
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)

			byName, ok := ByName(c.Name())
			require.True(t, ok)
			assert.Equal(t, c, byName)
		})
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := manifest{Name: "a", Version: 1, Width: 8}

	var out manifest
	require.NoError(t, JSON{}.Unmarshal(MustMarshal(GoJSON{}, in), &out))
	assert.Equal(t, in, out)

	out = manifest{}
	require.NoError(t, GoJSON{}.Unmarshal(MustMarshal(nil, in), &out))
	assert.Equal(t, in, out)
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}

func TestCompression(t *testing.T) {
	compressible := bytes.Repeat([]byte{0, 0, 0, 1, 0, 0, 0, 0}, 4096)
	random := make([]byte, 1024)
	for i := range random {
		random[i] = byte(i*7919 + i>>3*31)
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			for _, data := range [][]byte{nil, {1}, compressible, random} {
				frame, err := Compress(data, c)
				require.NoError(t, err)
				assert.Equal(t, byte(c), frame[0])

				out, err := Decompress(frame)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(out))
				assert.True(t, bytes.Equal(data, out))
			}

			frame, err := Compress(compressible, c)
			require.NoError(t, err)
			if c == CompressionNone {
				assert.Len(t, frame, frameHeaderSize+len(compressible))
			} else {
				assert.Less(t, len(frame), len(compressible)/4)
			}
		})
	}
}

func TestCompress_Unknown(t *testing.T) {
	_, err := Compress([]byte{1}, Compression(9))
	assert.Error(t, err)
}

func TestDecompress_Corrupt(t *testing.T) {
	data := bytes.Repeat([]byte("bitmap"), 1000)
	frame, err := Compress(data, CompressionZSTD)
	require.NoError(t, err)

	tests := map[string][]byte{
		"short":     frame[:10],
		"truncated": frame[:len(frame)-1],
		"trailing":  append(bytes.Clone(frame), 0),
		"garbage": func() []byte {
			b := bytes.Clone(frame)
			for i := frameHeaderSize; i < len(b); i++ {
				b[i] = 0xFF
			}
			return b
		}(),
		"algorithm": func() []byte {
			b := bytes.Clone(frame)
			b[0] = 9
			return b
		}(),
	}

	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decompress(f)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, "compression(9)", Compression(9).String())
}
