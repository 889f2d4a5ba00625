// Package resource bounds the memory and I/O a bitmap workload may consume.
//
// A Controller governs three resources:
//
//   - Memory: a byte budget charged by bitmap growth (non-blocking, fail-fast)
//   - Background slots: concurrent snapshot jobs
//   - IO: a token bucket for snapshot reads and writes
//
// # Memory Budget
//
// Growth asks the controller for the bytes of the blocks it is about to
// append. When the budget would be exceeded the request fails immediately
// with ErrMemoryLimitExceeded and the bitmap reports an allocation failure:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20, // 64MB of blocks across all bitmaps
//	})
//	bm := growablebitmap.New[growablebitmap.U64](growablebitmap.WithMemoryBudget(rc))
//
// Shrinking a bitmap releases the bytes of the removed blocks.
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// # Nil Safety
//
// Every method accepts a nil *Controller and treats it as unlimited, so
// callers can pass the controller around without nil checks.
package resource
