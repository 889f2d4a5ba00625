package snapshot

import (
	"time"

	growablebitmap "github.com/poliorcetics/growable-bitmap"
	"github.com/poliorcetics/growable-bitmap/codec"
	"github.com/poliorcetics/growable-bitmap/resource"
)

type options struct {
	compression codec.Compression
	codec       codec.Codec
	controller  *resource.Controller
	logger      *growablebitmap.Logger
	metrics     growablebitmap.MetricsCollector
	now         func() time.Time
}

// Option configures a Store.
type Option func(*options)

// WithCompression sets the payload compression. Default: CompressionLZ4.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec sets the manifest codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithController throttles snapshot I/O and bounds SaveAll concurrency.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithLogger configures the logger used for save and restore events.
//
// If nil is passed, logging is disabled.
func WithLogger(l *growablebitmap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = growablebitmap.NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures the collector used for save and restore events.
func WithMetrics(mc growablebitmap.MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}

// WithClock overrides the time source for manifest timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		compression: codec.CompressionLZ4,
		codec:       codec.Default,
		logger:      growablebitmap.NoopLogger(),
		metrics:     growablebitmap.NoopMetricsCollector{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
