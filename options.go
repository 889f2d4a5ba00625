package growablebitmap

import (
	"github.com/poliorcetics/growable-bitmap/resource"
)

type options struct {
	capacityBits     uint64
	budget           *resource.Controller
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures a GrowableBitMap at construction time.
type Option func(*options)

// WithCapacity preallocates room for at least bits bits.
//
// Capacity is rounded up to whole blocks. It does not change Len: the bitmap
// stays empty, but setting any bit below the capacity does not reallocate.
func WithCapacity(bits uint64) Option {
	return func(o *options) {
		o.capacityBits = bits
	}
}

// WithMemoryBudget charges the bytes of every block appended by growth to rc
// and releases them when blocks are removed.
//
// When rc refuses a reservation, growth fails with an *ErrAllocation that
// wraps resource.ErrMemoryLimitExceeded. Several bitmaps may share one
// controller to enforce a global budget.
func WithMemoryBudget(rc *resource.Controller) Option {
	return func(o *options) {
		o.budget = rc
	}
}

// WithLogger configures the logger used for growth and shrink events.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics configures the metrics collector used for growth and shrink
// events.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
