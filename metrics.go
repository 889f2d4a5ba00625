package growablebitmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Only storage-changing events are reported; single-bit reads and writes that
// do not grow the bitmap are never recorded.
type MetricsCollector interface {
	// RecordGrow is called after each growth attempt.
	// added is the number of blocks appended, err is nil if successful.
	RecordGrow(added int, err error)

	// RecordShrink is called after trailing blocks are removed.
	RecordShrink(removed int)

	// RecordSnapshot is called after each snapshot save.
	// size is the number of bytes written.
	RecordSnapshot(size int64, duration time.Duration, err error)

	// RecordRestore is called after each snapshot load.
	RecordRestore(size int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGrow(int, error)                      {}
func (NoopMetricsCollector) RecordShrink(int)                           {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRestore(int64, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GrowCount          atomic.Int64
	GrowErrors         atomic.Int64
	BlocksAdded        atomic.Int64
	ShrinkCount        atomic.Int64
	BlocksRemoved      atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotBytes      atomic.Int64
	SnapshotTotalNanos atomic.Int64
	RestoreCount       atomic.Int64
	RestoreErrors      atomic.Int64
	RestoreBytes       atomic.Int64
	RestoreTotalNanos  atomic.Int64
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(added int, err error) {
	b.GrowCount.Add(1)
	if err != nil {
		b.GrowErrors.Add(1)
		return
	}
	b.BlocksAdded.Add(int64(added))
}

// RecordShrink implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShrink(removed int) {
	b.ShrinkCount.Add(1)
	b.BlocksRemoved.Add(int64(removed))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(size int64, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(size)
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(size int64, duration time.Duration, err error) {
	b.RestoreCount.Add(1)
	b.RestoreTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RestoreErrors.Add(1)
		return
	}
	b.RestoreBytes.Add(size)
}

// MetricsStats is a point-in-time copy of BasicMetricsCollector counters.
type MetricsStats struct {
	GrowCount      int64
	GrowErrors     int64
	BlocksAdded    int64
	ShrinkCount    int64
	BlocksRemoved  int64
	SnapshotCount  int64
	SnapshotErrors int64
	SnapshotBytes  int64
	AvgSnapshot    time.Duration
	RestoreCount   int64
	RestoreErrors  int64
	RestoreBytes   int64
	AvgRestore     time.Duration
}

// GetStats returns a snapshot of the current counters.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	stats := MetricsStats{
		GrowCount:      b.GrowCount.Load(),
		GrowErrors:     b.GrowErrors.Load(),
		BlocksAdded:    b.BlocksAdded.Load(),
		ShrinkCount:    b.ShrinkCount.Load(),
		BlocksRemoved:  b.BlocksRemoved.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
		RestoreCount:   b.RestoreCount.Load(),
		RestoreErrors:  b.RestoreErrors.Load(),
		RestoreBytes:   b.RestoreBytes.Load(),
	}
	if stats.SnapshotCount > 0 {
		stats.AvgSnapshot = time.Duration(b.SnapshotTotalNanos.Load() / stats.SnapshotCount)
	}
	if stats.RestoreCount > 0 {
		stats.AvgRestore = time.Duration(b.RestoreTotalNanos.Load() / stats.RestoreCount)
	}
	return stats
}
