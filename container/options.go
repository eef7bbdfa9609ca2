package container

import (
	"log/slog"

	"github.com/hupe1980/splash/codec"
	"github.com/hupe1980/splash/internal/cache"
	"github.com/hupe1980/splash/internal/compress"
	"github.com/hupe1980/splash/internal/resource"
)

type options struct {
	codec       codec.Codec
	compression compress.Codec
	cache       cache.BlockCache
	rc          *resource.Controller
	logger      *slog.Logger
}

// Option configures Create and Open.
type Option func(*options)

// WithCodec sets the metadata codec of newly created containers. Existing
// containers always use the codec named in their manifest.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the slab codec used for arrays created with
// compression enabled.
func WithCompression(c compress.Codec) Option {
	return func(o *options) { o.compression = c }
}

// WithCache caches decoded slabs.
func WithCache(c cache.BlockCache) Option {
	return func(o *options) { o.cache = c }
}

// WithResourceController bounds slab fetch concurrency and store IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger for debug events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		codec:       codec.Default,
		compression: compress.ZSTD,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
