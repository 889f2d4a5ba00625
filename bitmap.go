package growablebitmap

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/poliorcetics/growable-bitmap/resource"
)

// GrowableBitMap is a growable compact boolean array backed by blocks of
// type B.
//
// Bits are stored contiguously: logical index i lives in block i/W at offset
// i%W, where W is B's width. The first bit is the least significant bit of
// the first block.
//
// Len is always a whole number of blocks. Reads (Get, Clear) are bounds
// checked against Len; writes that can create set bits (Set, Toggle) grow the
// bitmap with zero blocks until the index is addressable.
//
// The zero value is an empty bitmap ready to use. A GrowableBitMap is not safe
// for concurrent use; callers sharing one must serialize access.
//
// Caveat: growth is sized by the highest index ever written. Setting only bits
// 1200 to 1400 allocates storage for all bits below 1200 as well; storing an
// offset elsewhere and indexing from zero is more compact.
type GrowableBitMap[B Block[B]] struct {
	blocks []B

	budget  *resource.Controller
	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty GrowableBitMap. It does not allocate unless
// WithCapacity is given.
func New[B Block[B]](opts ...Option) *GrowableBitMap[B] {
	o := applyOptions(opts)

	m := &GrowableBitMap[B]{
		budget:  o.budget,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}

	if o.capacityBits > 0 {
		n := ceilDiv(o.capacityBits, m.width())
		if n <= m.maxBlocks() {
			m.blocks = make([]B, 0, int(n))
		}
	}

	return m
}

// width returns W, the number of bits per block.
func (m *GrowableBitMap[B]) width() uint64 {
	var zero B
	return uint64(zero.Width())
}

// blockBytes returns the in-memory size of one block.
func (m *GrowableBitMap[B]) blockBytes() int64 {
	return int64(m.width() / 8)
}

// maxBlocks is the largest block count whose bit length fits in a uint64 and
// whose byte size fits in an int.
func (m *GrowableBitMap[B]) maxBlocks() uint64 {
	return min(math.MaxUint64/m.width(), uint64(math.MaxInt)/uint64(m.blockBytes()))
}

// locate translates a logical index into a block index and in-block offset.
func (m *GrowableBitMap[B]) locate(index uint64) (int, uint) {
	w := m.width()
	return int(index / w), uint(index % w)
}

// Len returns the number of addressable bits, always BlockCount() * BlockWidth().
func (m *GrowableBitMap[B]) Len() uint64 {
	return uint64(len(m.blocks)) * m.width()
}

// Cap returns the number of bits the bitmap can hold without reallocating.
func (m *GrowableBitMap[B]) Cap() uint64 {
	return uint64(cap(m.blocks)) * m.width()
}

// BlockCount returns the number of storage blocks.
func (m *GrowableBitMap[B]) BlockCount() int {
	return len(m.blocks)
}

// BlockWidth returns W, the number of bits held by one block.
func (m *GrowableBitMap[B]) BlockWidth() uint {
	return uint(m.width())
}

// Get reports whether the bit at index is set.
//
// It returns an *ErrIndexOutOfBounds when index >= Len(). Get never grows the
// bitmap.
func (m *GrowableBitMap[B]) Get(index uint64) (bool, error) {
	if index >= m.Len() {
		return false, m.outOfBounds(index)
	}
	i, off := m.locate(index)
	return m.blocks[i].Bit(off), nil
}

// Contains reports whether the bit at index is set, treating every bit past
// Len() as clear.
func (m *GrowableBitMap[B]) Contains(index uint64) bool {
	if index >= m.Len() {
		return false
	}
	i, off := m.locate(index)
	return m.blocks[i].Bit(off)
}

// Set sets the bit at index to 1, growing the bitmap if index >= Len().
// It reports whether the bit was changed by this call.
//
// The only failure is an *ErrAllocation when growth cannot be satisfied; the
// bitmap is left unchanged in that case.
func (m *GrowableBitMap[B]) Set(index uint64) (bool, error) {
	if err := m.ensure(index); err != nil {
		return false, err
	}
	i, off := m.locate(index)
	b := m.blocks[i]
	if b.Bit(off) {
		return false, nil
	}
	m.blocks[i] = b.SetBit(off)
	return true, nil
}

// Clear sets the bit at index to 0 and reports whether the bit was changed by
// this call.
//
// Like Get, it returns an *ErrIndexOutOfBounds when index >= Len(). Clear
// never grows or shrinks the bitmap, even when it clears the last set bit.
func (m *GrowableBitMap[B]) Clear(index uint64) (bool, error) {
	if index >= m.Len() {
		return false, m.outOfBounds(index)
	}
	i, off := m.locate(index)
	b := m.blocks[i]
	if !b.Bit(off) {
		return false, nil
	}
	m.blocks[i] = b.ClearBit(off)
	return true, nil
}

// Toggle flips the bit at index, growing the bitmap like Set, and returns
// the bit's new value.
func (m *GrowableBitMap[B]) Toggle(index uint64) (bool, error) {
	if err := m.ensure(index); err != nil {
		return false, err
	}
	i, off := m.locate(index)
	b := m.blocks[i]
	if b.Bit(off) {
		m.blocks[i] = b.ClearBit(off)
		return false, nil
	}
	m.blocks[i] = b.SetBit(off)
	return true, nil
}

// Grow ensures Len() >= bits, appending zero blocks as needed.
func (m *GrowableBitMap[B]) Grow(bits uint64) error {
	if bits == 0 {
		return nil
	}
	return m.ensure(bits - 1)
}

// ShrinkTo removes trailing blocks until at most blocks remain. Len() becomes
// blocks * BlockWidth(). It is a no-op when blocks >= BlockCount(); negative
// values are treated as 0.
//
// Capacity is kept; use ShrinkToFit to release it.
func (m *GrowableBitMap[B]) ShrinkTo(blocks int) {
	blocks = max(blocks, 0)
	if blocks >= len(m.blocks) {
		return
	}
	removed := len(m.blocks) - blocks
	m.blocks = m.blocks[:blocks]
	m.budget.ReleaseMemory(int64(removed) * m.blockBytes())
	m.observeShrink(removed)
}

// Truncate shortens the bitmap to the fewest whole blocks that still cover
// bits bits. Bits past the new Len() are discarded; bits inside the last kept
// block are never masked. It is a no-op when the bitmap is already that short.
func (m *GrowableBitMap[B]) Truncate(bits uint64) {
	keep := ceilDiv(bits, m.width())
	if keep >= uint64(len(m.blocks)) {
		return
	}
	m.ShrinkTo(int(keep))
}

// ShrinkToFit drops trailing all-zero blocks and releases spare capacity.
// The allocator may still leave room for a few more blocks.
func (m *GrowableBitMap[B]) ShrinkToFit() {
	zero := zeroBlock[B]()
	n := len(m.blocks)
	for n > 0 && m.blocks[n-1] == zero {
		n--
	}
	m.ShrinkTo(n)

	if cap(m.blocks) == len(m.blocks) {
		return
	}
	if len(m.blocks) == 0 {
		m.blocks = nil
		return
	}
	m.blocks = slices.Clone(m.blocks)
}

// Reset removes every block, leaving an empty bitmap. Capacity is kept.
func (m *GrowableBitMap[B]) Reset() {
	m.ShrinkTo(0)
}

// IsEmpty reports whether no bit is set. A bitmap with blocks that are all
// zero is empty.
func (m *GrowableBitMap[B]) IsEmpty() bool {
	zero := zeroBlock[B]()
	for _, b := range m.blocks {
		if b != zero {
			return false
		}
	}
	return true
}

// CountOnes returns the number of set bits.
func (m *GrowableBitMap[B]) CountOnes() uint64 {
	var n uint64
	for _, b := range m.blocks {
		n += uint64(b.OnesCount())
	}
	return n
}

// Clone returns a deep copy sharing the same options. The copy's blocks are
// charged to the memory budget, so Clone can fail with an *ErrAllocation.
func (m *GrowableBitMap[B]) Clone() (*GrowableBitMap[B], error) {
	c := &GrowableBitMap[B]{
		budget:  m.budget,
		logger:  m.logger,
		metrics: m.metrics,
	}
	if len(m.blocks) == 0 {
		return c, nil
	}
	if err := c.ensure(m.Len() - 1); err != nil {
		return nil, err
	}
	copy(c.blocks, m.blocks)
	return c, nil
}

// Equal reports whether both bitmaps have the same length and the same bits.
func (m *GrowableBitMap[B]) Equal(other *GrowableBitMap[B]) bool {
	return slices.Equal(m.blocks, other.blocks)
}

// String renders the bitmap as its block values, first block first.
func (m *GrowableBitMap[B]) String() string {
	return fmt.Sprintf("GrowableBitMap{width: %d, len: %d, blocks: %v}", m.width(), m.Len(), m.blocks)
}

// ensure makes index addressable. Growth is closed-form: the missing
// blocks are appended in a single step.
func (m *GrowableBitMap[B]) ensure(index uint64) error {
	needed := index/m.width() + 1
	if needed <= uint64(len(m.blocks)) {
		return nil
	}
	return m.growTo(index, needed)
}

func (m *GrowableBitMap[B]) growTo(index, needed uint64) error {
	added := needed - uint64(len(m.blocks))

	if needed > m.maxBlocks() {
		err := &ErrAllocation{Index: index, Blocks: added}
		m.observeGrow(index, 0, err)
		return err
	}

	n := int(added)
	size := int64(n) * m.blockBytes()
	if err := m.budget.AcquireMemory(size); err != nil {
		err = &ErrAllocation{Index: index, Blocks: added, cause: err}
		m.observeGrow(index, 0, err)
		return err
	}

	err := tryAlloc(func() {
		old := len(m.blocks)
		m.blocks = slices.Grow(m.blocks, n)[:old+n]
		// Spare capacity may hold blocks from before a shrink.
		clear(m.blocks[old:])
	})
	if err != nil {
		m.budget.ReleaseMemory(size)
		err = &ErrAllocation{Index: index, Blocks: added, cause: err}
		m.observeGrow(index, 0, err)
		return err
	}

	m.observeGrow(index, n, nil)
	return nil
}

// tryAlloc runs fn and converts a runtime panic raised while allocating
// (e.g. "makeslice: len out of range") into an error.
func tryAlloc(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			err = re
		}
	}()
	fn()
	return nil
}

func (m *GrowableBitMap[B]) outOfBounds(index uint64) error {
	return &ErrIndexOutOfBounds{Index: index, Len: m.Len()}
}

func (m *GrowableBitMap[B]) observeGrow(index uint64, added int, err error) {
	if m.metrics != nil {
		m.metrics.RecordGrow(added, err)
	}
	if m.logger != nil {
		m.logger.LogGrow(context.Background(), index, added, len(m.blocks), err)
	}
}

func (m *GrowableBitMap[B]) observeShrink(removed int) {
	if m.metrics != nil {
		m.metrics.RecordShrink(removed)
	}
	if m.logger != nil {
		m.logger.LogShrink(context.Background(), removed, len(m.blocks))
	}
}

func zeroBlock[B Block[B]]() B {
	var b B
	return b.Zero()
}

func ceilDiv(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
