package growablebitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/poliorcetics/growable-bitmap/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoundTrip[B Block[B]](t *testing.T) {
	t.Helper()

	bm := bitmapOf[B](t, 0, 7, 100, 1023)

	data, err := bm.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, bm.EncodedSize())

	got := New[B]()
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, bm.Equal(got))

	var buf bytes.Buffer
	n, err := bm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, buf.Bytes())

	fromReader := New[B]()
	n, err = fromReader.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.True(t, bm.Equal(fromReader))
}

func TestEncoding_RoundTrip(t *testing.T) {
	t.Run("U8", func(t *testing.T) { testRoundTrip[U8](t) })
	t.Run("U16", func(t *testing.T) { testRoundTrip[U16](t) })
	t.Run("U32", func(t *testing.T) { testRoundTrip[U32](t) })
	t.Run("U64", func(t *testing.T) { testRoundTrip[U64](t) })
	t.Run("U128", func(t *testing.T) { testRoundTrip[U128](t) })
}

func TestEncoding_Empty(t *testing.T) {
	data, err := New[U32]().MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, headerSize)

	bm := bitmapOf[U32](t, 5)
	require.NoError(t, bm.UnmarshalBinary(data))
	assert.Equal(t, uint64(0), bm.Len())
}

func TestEncoding_Layout(t *testing.T) {
	bm := bitmapOf[U16](t, 0, 17)

	data, err := bm.AppendBinary([]byte("xx"))
	require.NoError(t, err)

	data = data[2:]
	assert.Equal(t, []byte("GBM1"), data[0:4])
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[4:6]))
	assert.Equal(t, uint64(32), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, []byte{0x01, 0x00, 0x02, 0x00}, data[24:])
}

func TestEncoding_LargeStream(t *testing.T) {
	bm := New[U64]()
	for i := uint64(0); i < 1<<20; i += 97 {
		_, err := bm.Set(i)
		require.NoError(t, err)
	}
	require.Greater(t, bm.EncodedSize(), readChunk)

	var buf bytes.Buffer
	_, err := bm.WriteTo(&buf)
	require.NoError(t, err)
	buf.WriteString("tail")

	got := New[U64]()
	_, err = got.ReadFrom(&buf)
	require.NoError(t, err)
	assert.True(t, bm.Equal(got))
	assert.Equal(t, "tail", buf.String())
}

func TestEncoding_FormatErrors(t *testing.T) {
	valid, err := bitmapOf[U8](t, 3, 12).MarshalBinary()
	require.NoError(t, err)

	mutate := func(fn func([]byte) []byte) []byte {
		return fn(bytes.Clone(valid))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"ShortHeader", valid[:10]},
		{"BadMagic", mutate(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"WidthMismatch", mutate(func(b []byte) []byte { b[4] = 16; return b })},
		{"Reserved", mutate(func(b []byte) []byte { b[6] = 1; return b })},
		{"LenMismatch", mutate(func(b []byte) []byte { b[8] = 17; return b })},
		{"Truncated", valid[:len(valid)-1]},
		{"Trailing", append(bytes.Clone(valid), 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bm := bitmapOf[U8](t, 1)

			err := bm.UnmarshalBinary(tc.data)
			var fe *ErrFormat
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, ErrInvalidFormat)

			assert.Equal(t, uint64(8), bm.Len(), "bitmap must be unchanged")
			assert.True(t, bm.Contains(1))
		})
	}
}

func TestEncoding_WidthMismatchAcrossTypes(t *testing.T) {
	data, err := bitmapOf[U64](t, 3).MarshalBinary()
	require.NoError(t, err)

	err = New[U128]().UnmarshalBinary(data)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestReadFrom_Truncated(t *testing.T) {
	data, err := bitmapOf[U32](t, 200).MarshalBinary()
	require.NoError(t, err)

	for _, cut := range []int{0, 5, headerSize, len(data) - 1} {
		bm := bitmapOf[U32](t, 1)
		_, err := bm.ReadFrom(bytes.NewReader(data[:cut]))
		assert.ErrorIs(t, err, ErrInvalidFormat, "cut at %d", cut)
		assert.True(t, errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF), "cut at %d", cut)
		assert.Equal(t, uint64(32), bm.Len())
	}
}

func TestReadFrom_HugeDeclaredCount(t *testing.T) {
	const count = uint64(1) << 37

	header := []byte(encodingMagic)
	header = binary.LittleEndian.AppendUint16(header, 64)
	header = binary.LittleEndian.AppendUint16(header, 0)
	header = binary.LittleEndian.AppendUint64(header, count*64)
	header = binary.LittleEndian.AppendUint64(header, count)
	require.Len(t, header, headerSize)

	rc := resource.NewController(resource.Config{})
	bm := New[U64](WithMemoryBudget(rc))
	_, err := bm.Set(3)
	require.NoError(t, err)
	usage := rc.MemoryUsage()

	n, err := bm.ReadFrom(io.MultiReader(bytes.NewReader(header), bytes.NewReader(make([]byte, 100))))
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, int64(headerSize+100), n)

	assert.Equal(t, uint64(64), bm.Len())
	assert.True(t, bm.Contains(3))
	assert.Equal(t, usage, rc.MemoryUsage(), "partial payload must not stay charged")
}

func TestReadFrom_MemoryBudget(t *testing.T) {
	data, err := bitmapOf[U8](t, 1<<20).MarshalBinary()
	require.NoError(t, err)

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100 << 10})
	bm := New[U8](WithMemoryBudget(rc))
	_, err = bm.Set(7)
	require.NoError(t, err)

	_, err = bm.ReadFrom(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrAllocationFailed)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, uint64(8), bm.Len())
	assert.Equal(t, int64(1), rc.MemoryUsage())
}

func TestReadFrom_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	bm := New[U8]()

	_, err := bm.ReadFrom(io.MultiReader(bytes.NewReader([]byte("GB")), &errReader{err: boom}))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidFormat)
}

func TestWriteTo_WriterError(t *testing.T) {
	bm := bitmapOf[U8](t, 3)

	_, err := bm.WriteTo(&errWriter{err: io.ErrShortWrite})
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestUnmarshalBinary_MemoryBudget(t *testing.T) {
	data, err := bitmapOf[U8](t, 100).MarshalBinary()
	require.NoError(t, err)

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
	bm := New[U8](WithMemoryBudget(rc))
	_, err = bm.Set(7)
	require.NoError(t, err)

	err = bm.UnmarshalBinary(data)
	require.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, int64(1), rc.MemoryUsage())
	assert.True(t, bm.Contains(7))

	small, err := bitmapOf[U8](t, 20).MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, bm.UnmarshalBinary(small))
	assert.Equal(t, int64(3), rc.MemoryUsage())
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

type errWriter struct{ err error }

func (w *errWriter) Write([]byte) (int, error) { return 0, w.err }
