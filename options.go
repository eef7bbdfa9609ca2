package splash

import (
	"log/slog"

	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/handles"
	"github.com/hupe1980/splash/internal/compress"
)

// Compressor selects the codec of compressed datasets.
type Compressor = compress.Codec

const (
	// CompressZSTD compresses with zstd (default).
	CompressZSTD = compress.ZSTD
	// CompressLZ4 compresses with lz4.
	CompressLZ4 = compress.LZ4
)

type options struct {
	comm             comm.Comm
	maxOpen          int
	rawCacheBytes    int64
	compressor       Compressor
	extension        string
	ioLimit          int64
	containerOptions []container.Option
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Collector.
type Option func(*options)

// WithComm sets the communicator used for collective creates. It is
// required when the process grid has more than one cell.
func WithComm(c comm.Comm) Option {
	return func(o *options) {
		o.comm = c
	}
}

// WithMaxOpenContainers bounds the number of iteration containers kept open.
func WithMaxOpenContainers(n int) Option {
	return func(o *options) {
		o.maxOpen = n
	}
}

// WithRawCacheBytes sets the budget of the raw data cache. Zero disables it.
// The budget is fixed for the lifetime of the Collector.
func WithRawCacheBytes(n int64) Option {
	return func(o *options) {
		o.rawCacheBytes = n
	}
}

// WithCompressor sets the codec used for datasets written with compression.
func WithCompressor(c Compressor) Option {
	return func(o *options) {
		o.compressor = c
	}
}

// WithExtension sets the container name suffix (default "h5").
func WithExtension(ext string) Option {
	return func(o *options) {
		o.extension = ext
	}
}

// WithIOLimit caps dataset IO in bytes per second. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithContainerOptions passes options to every container opened.
func WithContainerOptions(opts ...container.Option) Option {
	return func(o *options) {
		o.containerOptions = append(o.containerOptions, opts...)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &splash.BasicMetricsCollector{}
//	dc, _ := splash.New(store, grid.One(), 0, splash.WithMetricsCollector(metrics))
//	// ... use dc ...
//	stats := metrics.GetStats()
//	fmt.Printf("Writes: %d, Avg latency: %dns\n", stats.WriteCount, stats.WriteAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxOpen:          handles.DefaultMaxHandles,
		rawCacheBytes:    handles.DefaultRawCacheBytes,
		compressor:       CompressZSTD,
		extension:        handles.DefaultExtension,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
