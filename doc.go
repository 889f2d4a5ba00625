// Package growablebitmap provides a growable compact boolean array.
//
// A GrowableBitMap stores bits contiguously in fixed-width unsigned blocks.
// The block type is chosen by the caller at compile time and trades memory
// granularity against the number of blocks:
//
//	U8    8-bit blocks   (grows 1 byte at a time)
//	U16   16-bit blocks
//	U32   32-bit blocks
//	U64   64-bit blocks  (one machine word)
//	U128  128-bit blocks (two machine words)
//
// There is deliberately no platform-width block: a bitmap encoded on one
// machine decodes identically on every other.
//
// # Quick Start
//
//	bm := growablebitmap.New[growablebitmap.U8]()
//	bm.Set(10)            // grows to 16 bits (two 8-bit blocks)
//	ok, _ := bm.Get(10)   // true
//	_, err := bm.Get(99)  // *ErrIndexOutOfBounds: reads never grow
//	bm.Clear(10)
//	bm.ShrinkTo(1)        // Len() == 8
//
// # Length Model
//
// Len is always BlockCount() * BlockWidth(); there is no partial trailing
// block. Set and Toggle grow the bitmap with zero blocks until the index is
// addressable. Get and Clear are bounds checked and never grow. ShrinkTo and
// Truncate remove whole trailing blocks only.
//
// # Errors
//
//	ErrOutOfBounds       *ErrIndexOutOfBounds  Get/Clear past Len
//	ErrAllocationFailed  *ErrAllocation        growth refused (budget, size)
//	ErrInvalidFormat     *ErrFormat            UnmarshalBinary/ReadFrom
//
// Go's out-of-memory condition is fatal and cannot be reported. To surface
// allocation failures as errors, attach a memory budget:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
//	bm := growablebitmap.New[growablebitmap.U64](growablebitmap.WithMemoryBudget(rc))
//
// # Beyond Single Bits
//
//   - Iteration: All, Ones, NextSet
//   - Set algebra: Union, Intersect, Difference, SymmetricDifference, Subset
//   - Persistence: MarshalBinary, UnmarshalBinary, WriteTo, ReadFrom
//   - Roaring interop: package roaring
//   - Versioned, compressed snapshots in blob stores: package snapshot
//
// # Concurrency
//
// A GrowableBitMap has a single owner. It performs no locking; callers that
// share one across goroutines must serialize access themselves.
package growablebitmap
