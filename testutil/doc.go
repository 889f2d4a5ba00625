// Package testutil provides testing utilities for growable bitmaps.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Operation Streams
//
//	rng := testutil.NewRNG(seed)
//	ops := rng.Ops(1000, 4096) // 1000 set/clear/toggle ops on indices < 4096
//
// # Reference Model
//
// Model is a map-backed bitmap with the same length rules as
// GrowableBitMap. Apply the same operations to both and compare:
//
//	model := testutil.NewModel(8)
//	for _, op := range ops {
//	    model.Apply(op)
//	}
package testutil
