package growablebitmap

import "iter"

// Bits is the width-independent, read-only view of a bitmap used by the set
// algebra. Every *GrowableBitMap satisfies it regardless of block type.
type Bits interface {
	Len() uint64
	Contains(index uint64) bool
	Ones() iter.Seq[uint64]
}

var (
	_ Bits = (*GrowableBitMap[U8])(nil)
	_ Bits = (*GrowableBitMap[U128])(nil)
)

// All yields every addressable bit as (index, value), in index order.
func (m *GrowableBitMap[B]) All() iter.Seq2[uint64, bool] {
	return func(yield func(uint64, bool) bool) {
		w := m.width()
		for i := 0; i < len(m.blocks); i++ {
			b := m.blocks[i]
			base := uint64(i) * w
			for off := uint(0); off < uint(w); off++ {
				if !yield(base+uint64(off), b.Bit(off)) {
					return
				}
			}
		}
	}
}

// Ones yields the indices of set bits in ascending order. All-zero blocks are
// skipped without inspecting their bits.
//
// Each block is read once, before its bits are yielded, so the loop body may
// clear or toggle the bit it was handed.
func (m *GrowableBitMap[B]) Ones() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		zero := zeroBlock[B]()
		w := m.width()
		for i := 0; i < len(m.blocks); i++ {
			b := m.blocks[i]
			base := uint64(i) * w
			for off := uint(0); b != zero; off++ {
				if !b.Bit(off) {
					continue
				}
				if !yield(base + uint64(off)) {
					return
				}
				b = b.ClearBit(off)
			}
		}
	}
}

// NextSet returns the index of the first set bit at or after from.
// It returns false when there is none.
func (m *GrowableBitMap[B]) NextSet(from uint64) (uint64, bool) {
	n := m.Len()
	if from >= n {
		return 0, false
	}

	zero := zeroBlock[B]()
	w := m.width()
	i, off := m.locate(from)
	for ; i < len(m.blocks); i, off = i+1, 0 {
		b := m.blocks[i]
		if b == zero {
			continue
		}
		for ; off < uint(w); off++ {
			if b.Bit(off) {
				return uint64(i)*w + uint64(off), true
			}
		}
	}
	return 0, false
}
