package growablebitmap

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"slices"
)

// Binary layout, little-endian:
//
//	offset  size  field
//	0       4     magic "GBM1"
//	4       2     block width in bits
//	6       2     reserved, zero
//	8       8     length in bits
//	16      8     block count
//	24      ...   blocks, first block first, each little-endian
//
// The length is redundant with the block count and is checked on restore:
// count * width must equal length exactly.
const (
	encodingMagic = "GBM1"
	headerSize    = 24

	// readChunk bounds the payload buffer used by ReadFrom.
	readChunk = 64 << 10
)

// EncodedSize returns the number of bytes MarshalBinary produces.
func (m *GrowableBitMap[B]) EncodedSize() int {
	return headerSize + len(m.blocks)*int(m.blockBytes())
}

// AppendBinary appends the binary encoding of the bitmap to dst.
func (m *GrowableBitMap[B]) AppendBinary(dst []byte) ([]byte, error) {
	dst = m.appendHeader(dst)
	for _, b := range m.blocks {
		dst = b.AppendLE(dst)
	}
	return dst, nil
}

// MarshalBinary encodes the bitmap's length and blocks.
func (m *GrowableBitMap[B]) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.EncodedSize()))
}

// UnmarshalBinary replaces the bitmap's contents with the decoded data.
//
// The data must be exactly one encoding produced for the same block type.
// Any mismatch returns an *ErrFormat and leaves the bitmap unchanged. The
// decoded blocks are charged to the memory budget, so an *ErrAllocation is
// possible as well.
func (m *GrowableBitMap[B]) UnmarshalBinary(data []byte) error {
	count, err := m.parseHeader(data)
	if err != nil {
		return err
	}

	payload := data[headerSize:]
	bw := uint64(m.blockBytes())
	if count > uint64(len(payload))/bw {
		return formatError(nil, "payload holds %d bytes, %d blocks need %d", len(payload), count, count*bw)
	}
	if uint64(len(payload)) != count*bw {
		return formatError(nil, "%d trailing bytes after %d blocks", uint64(len(payload))-count*bw, count)
	}

	return m.restore(count, func(blocks []B) error {
		decodeBlocks(blocks, payload, int(bw))
		return nil
	})
}

// WriteTo writes the binary encoding to w.
func (m *GrowableBitMap[B]) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := w.Write(m.appendHeader(make([]byte, 0, headerSize)))
	total += int64(n)
	if err != nil {
		return total, err
	}

	buf := make([]byte, 0, min(readChunk, len(m.blocks)*int(m.blockBytes())))
	for _, b := range m.blocks {
		buf = b.AppendLE(buf)
		if len(buf) >= readChunk {
			n, err = w.Write(buf)
			total += int64(n)
			if err != nil {
				return total, err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		n, err = w.Write(buf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFrom reads exactly one binary encoding from r and replaces the bitmap's
// contents with it. Bytes after the encoding are left unread.
//
// A truncated stream returns an *ErrFormat; on any error the bitmap is left
// unchanged.
func (m *GrowableBitMap[B]) ReadFrom(r io.Reader) (int64, error) {
	var header [headerSize]byte
	n, err := io.ReadFull(r, header[:])
	total := int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return total, formatError(err, "short header: %d bytes", n)
		}
		return total, err
	}

	count, err := m.parseHeader(header[:])
	if err != nil {
		return total, err
	}

	blocks, n64, err := m.readBlocks(r, count)
	total += n64
	if err != nil {
		return total, err
	}
	m.swapBlocks(blocks)
	return total, nil
}

// readBlocks decodes count blocks from r one chunk at a time. Storage grows
// with the bytes actually read, so a header announcing more blocks than the
// stream holds fails on the missing payload instead of on allocation. Every
// chunk is charged to the memory budget; on error the charge is released.
func (m *GrowableBitMap[B]) readBlocks(r io.Reader, count uint64) ([]B, int64, error) {
	if count > m.maxBlocks() {
		return nil, 0, &ErrAllocation{Index: count*m.width() - 1, Blocks: count}
	}

	bw := int(m.blockBytes())
	perChunk := uint64(max(readChunk/bw, 1))
	first := min(count, perChunk)

	var (
		total   int64
		charged int64
	)
	fail := func(err error) ([]B, int64, error) {
		m.budget.ReleaseMemory(charged)
		return nil, total, err
	}

	blocks := make([]B, 0, int(first))
	buf := make([]byte, int(first)*bw)
	for remaining := count; remaining > 0; {
		k := int(min(remaining, perChunk))

		n, err := io.ReadFull(r, buf[:k*bw])
		total += int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fail(formatError(err, "truncated payload: %d blocks missing", remaining))
			}
			return fail(err)
		}

		size := int64(k * bw)
		if err := m.budget.AcquireMemory(size); err != nil {
			return fail(&ErrAllocation{Index: count*m.width() - 1, Blocks: count, cause: err})
		}
		charged += size

		start := len(blocks)
		err = tryAlloc(func() { blocks = slices.Grow(blocks, k)[:start+k] })
		if err != nil {
			return fail(&ErrAllocation{Index: count*m.width() - 1, Blocks: count, cause: err})
		}
		decodeBlocks(blocks[start:], buf, bw)
		remaining -= uint64(k)
	}
	return blocks, total, nil
}

func (m *GrowableBitMap[B]) appendHeader(dst []byte) []byte {
	dst = append(dst, encodingMagic...)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(m.width()))
	dst = binary.LittleEndian.AppendUint16(dst, 0)
	dst = binary.LittleEndian.AppendUint64(dst, m.Len())
	return binary.LittleEndian.AppendUint64(dst, uint64(len(m.blocks)))
}

// parseHeader validates the fixed header and returns the block count.
func (m *GrowableBitMap[B]) parseHeader(data []byte) (uint64, error) {
	if len(data) < headerSize {
		return 0, formatError(nil, "short header: %d bytes", len(data))
	}
	if string(data[0:4]) != encodingMagic {
		return 0, formatError(nil, "bad magic %q", data[0:4])
	}

	w := m.width()
	if width := uint64(binary.LittleEndian.Uint16(data[4:6])); width != w {
		return 0, formatError(nil, "block width %d, want %d", width, w)
	}
	if reserved := binary.LittleEndian.Uint16(data[6:8]); reserved != 0 {
		return 0, formatError(nil, "reserved field is %#x", reserved)
	}

	bitLen := binary.LittleEndian.Uint64(data[8:16])
	count := binary.LittleEndian.Uint64(data[16:24])
	if count > math.MaxUint64/w || count*w != bitLen {
		return 0, formatError(nil, "length %d does not match %d blocks of %d bits", bitLen, count, w)
	}
	return count, nil
}

// restore builds a fresh block slice of count blocks, lets fill populate it
// and swaps it in. The old blocks are kept if anything fails.
func (m *GrowableBitMap[B]) restore(count uint64, fill func([]B) error) error {
	if count > m.maxBlocks() {
		return &ErrAllocation{Index: count*m.width() - 1, Blocks: count}
	}

	n := int(count)
	size := int64(n) * m.blockBytes()
	if err := m.budget.AcquireMemory(size); err != nil {
		return &ErrAllocation{Index: count*m.width() - 1, Blocks: count, cause: err}
	}

	var blocks []B
	if err := tryAlloc(func() { blocks = make([]B, n) }); err != nil {
		m.budget.ReleaseMemory(size)
		return &ErrAllocation{Index: count*m.width() - 1, Blocks: count, cause: err}
	}

	if err := fill(blocks); err != nil {
		m.budget.ReleaseMemory(size)
		return err
	}

	m.swapBlocks(blocks)
	return nil
}

// swapBlocks installs blocks, whose bytes are already charged, and releases
// the budget held by the old ones.
func (m *GrowableBitMap[B]) swapBlocks(blocks []B) {
	m.budget.ReleaseMemory(int64(len(m.blocks)) * m.blockBytes())
	m.blocks = blocks
}

func decodeBlocks[B Block[B]](dst []B, src []byte, bw int) {
	zero := zeroBlock[B]()
	for i := range dst {
		dst[i] = zero.DecodeLE(src[i*bw:])
	}
}
