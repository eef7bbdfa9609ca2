package handles

import (
	"log/slog"

	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/internal/compress"
)

// DefaultMaxHandles bounds the number of open containers.
const DefaultMaxHandles = 100

// DefaultRawCacheBytes is the default raw data cache budget.
const DefaultRawCacheBytes = 64 << 20

// DefaultExtension is the container name suffix.
const DefaultExtension = "h5"

// Mode selects how containers are opened.
type Mode uint8

const (
	// ModeCreate truncates each container on first use.
	ModeCreate Mode = iota
	// ModeWrite opens containers read-write, creating missing ones.
	ModeWrite
	// ModeRead opens existing containers read-only.
	ModeRead
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeWrite:
		return "write"
	case ModeRead:
		return "read"
	default:
		return "unknown"
	}
}

// AccessParams configures container access for one Open.
type AccessParams struct {
	// Comm coordinates collective creates. Nil means comm.Self().
	Comm comm.Comm
	// RawCacheBytes is the budget of the decoded slab cache. Zero disables it.
	RawCacheBytes int64
	// Compression is the codec of arrays created with compression.
	Compression compress.Codec
	// Extension is appended to container names.
	Extension string
	// IOLimitBytesPerSec caps slab IO. Zero means unlimited.
	IOLimitBytesPerSec int64
}

// DefaultAccessParams returns the defaults for a single process.
func DefaultAccessParams() AccessParams {
	return AccessParams{
		Comm:          comm.Self(),
		RawCacheBytes: DefaultRawCacheBytes,
		Compression:   compress.ZSTD,
		Extension:     DefaultExtension,
	}
}

type options struct {
	logger     *slog.Logger
	maxHandles int
	container  []container.Option
}

// Option configures a Cache.
type Option func(*options)

// WithLogger sets the logger. Nil discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxHandles bounds the number of open containers. Values below 1 are ignored.
func WithMaxHandles(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxHandles = n
		}
	}
}

// WithContainerOptions passes extra options to every container opened.
func WithContainerOptions(opts ...container.Option) Option {
	return func(o *options) {
		o.container = append(o.container, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{maxHandles: DefaultMaxHandles}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
