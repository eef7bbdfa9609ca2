package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// DefaultMaxWorkers is used when Config.MaxWorkers is not positive.
const DefaultMaxWorkers = 4

// Config holds resource limits. Zero values mean unlimited, except for
// MaxWorkers which falls back to DefaultMaxWorkers.
type Config struct {
	// MemoryLimitBytes caps tracked memory.
	MemoryLimitBytes int64
	// MaxWorkers caps concurrent slab fetches.
	MaxWorkers int64
	// IOLimitBytesPerSec caps store throughput.
	IOLimitBytesPerSec int64
}

// Controller enforces a Config.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	workers *semaphore.Weighted

	io *rate.Limiter // nil if unlimited
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireMemory reserves bytes or fails with ErrMemoryLimitExceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// TryAcquireMemory reserves bytes and reports whether it succeeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory returns a reservation.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured limit, 0 if unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// MaxWorkers returns the worker bound, 0 for a nil controller.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return 0
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker blocks until a worker slot is free.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker takes a worker slot if one is free.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker frees a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// AcquireIO waits until bytes may be transferred. Requests larger than the
// bucket are split into bucket-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.io == nil {
		return nil
	}
	burst := c.io.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.io.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
