// Package roaring converts growable bitmaps to and from Roaring bitmaps.
//
// Roaring bitmaps are compressed and sparse; growable bitmaps are dense and
// cheap to index. Converting lets callers keep the dense form in memory and
// exchange the compressed form with systems that speak Roaring.
package roaring

import (
	"errors"
	"fmt"
	"math"

	growablebitmap "github.com/poliorcetics/growable-bitmap"

	rbm "github.com/RoaringBitmap/roaring/v2"
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ErrOutOfRange is returned when a set bit does not fit a 32-bit Roaring
// bitmap.
var ErrOutOfRange = errors.New("roaring: index exceeds 32-bit range")

// batchSize is the number of indices buffered before AddMany.
const batchSize = 4096

// ToRoaring returns a 32-bit Roaring bitmap holding the set bits of bits.
// It fails with ErrOutOfRange if any set bit is above math.MaxUint32.
func ToRoaring(bits growablebitmap.Bits) (*rbm.Bitmap, error) {
	rb := rbm.New()
	buf := make([]uint32, 0, batchSize)
	for i := range bits.Ones() {
		if i > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
		}
		buf = append(buf, uint32(i))
		if len(buf) == batchSize {
			rb.AddMany(buf)
			buf = buf[:0]
		}
	}
	rb.AddMany(buf)
	return rb, nil
}

// ToRoaring64 returns a 64-bit Roaring bitmap holding the set bits of bits.
func ToRoaring64(bits growablebitmap.Bits) *roaring64.Bitmap {
	rb := roaring64.New()
	buf := make([]uint64, 0, batchSize)
	for i := range bits.Ones() {
		buf = append(buf, i)
		if len(buf) == batchSize {
			rb.AddMany(buf)
			buf = buf[:0]
		}
	}
	rb.AddMany(buf)
	return rb
}

// FromRoaring builds a GrowableBitMap from rb. The result is sized to the
// largest element in a single growth step; an empty rb gives an empty bitmap.
func FromRoaring[B growablebitmap.Block[B]](rb *rbm.Bitmap, opts ...growablebitmap.Option) (*growablebitmap.GrowableBitMap[B], error) {
	bm := growablebitmap.New[B](opts...)
	if rb.IsEmpty() {
		return bm, nil
	}
	if err := bm.Grow(uint64(rb.Maximum()) + 1); err != nil {
		return nil, err
	}

	it := rb.Iterator()
	for it.HasNext() {
		if _, err := bm.Set(uint64(it.Next())); err != nil {
			return nil, err
		}
	}
	return bm, nil
}

// FromRoaring64 is FromRoaring for 64-bit Roaring bitmaps. Elements close to
// math.MaxUint64 need more storage than the process can address and fail with
// growablebitmap.ErrAllocationFailed.
func FromRoaring64[B growablebitmap.Block[B]](rb *roaring64.Bitmap, opts ...growablebitmap.Option) (*growablebitmap.GrowableBitMap[B], error) {
	bm := growablebitmap.New[B](opts...)
	if rb.IsEmpty() {
		return bm, nil
	}

	maxElem := rb.Maximum()
	if maxElem == math.MaxUint64 {
		_, err := bm.Set(maxElem)
		return nil, err
	}
	if err := bm.Grow(maxElem + 1); err != nil {
		return nil, err
	}

	it := rb.Iterator()
	for it.HasNext() {
		if _, err := bm.Set(it.Next()); err != nil {
			return nil, err
		}
	}
	return bm, nil
}
