package handles

import (
	"container/list"
	"context"
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/grid"
	"github.com/hupe1980/splash/internal/cache"
	"github.com/hupe1980/splash/internal/resource"
)

// Callback runs when a container is created or opened. user is the value
// passed at registration.
type Callback[T any] func(ctx context.Context, c *container.Container, id uint32, user T) error

// FullName returns the container name of iteration id.
func FullName(base string, id uint32, ext string) string {
	return base + "_" + strconv.FormatUint(uint64(id), 10) + "." + ext
}

type entry struct {
	id uint32
	c  *container.Container
}

// Cache keeps one container per iteration id open.
//
// A Cache is not safe for concurrent use. Caches of different ranks may
// share a blob store.
type Cache[T any] struct {
	store blobstore.BlobStore
	opts  options

	open   bool
	base   string
	params AccessParams
	mode   Mode
	comm   comm.Comm
	raw    cache.BlockCache
	rc     *resource.Controller
	access blobstore.BlobStore

	lru     *list.List
	entries map[uint32]*list.Element
	seen    *roaring.Bitmap

	onCreate     Callback[T]
	onCreateUser T
	onOpen       Callback[T]
	onOpenUser   T
}

// New returns a closed cache on store.
func New[T any](store blobstore.BlobStore, optFns ...Option) *Cache[T] {
	return &Cache[T]{
		store:   store,
		opts:    applyOptions(optFns),
		lru:     list.New(),
		entries: make(map[uint32]*list.Element),
		seen:    roaring.New(),
	}
}

// RegisterOnCreate sets the callback run after a container is created.
func (h *Cache[T]) RegisterOnCreate(cb Callback[T], user T) {
	h.onCreate = cb
	h.onCreateUser = user
}

// RegisterOnOpen sets the callback run after an existing container is opened.
func (h *Cache[T]) RegisterOnOpen(cb Callback[T], user T) {
	h.onOpen = cb
	h.onOpenUser = user
}

// Open prepares the cache for containers named after base.
func (h *Cache[T]) Open(split grid.Dimensions, base string, params AccessParams, mode Mode) error {
	if h.open {
		return ErrAlreadyOpen
	}
	if split != grid.One() {
		return fmt.Errorf("%w: %s", ErrUnsupportedSplit, split)
	}
	if base == "" {
		return fmt.Errorf("handles: empty base name")
	}
	if params.Comm == nil {
		params.Comm = comm.Self()
	}
	if params.Extension == "" {
		params.Extension = DefaultExtension
	}

	h.rc = resource.NewController(resource.Config{
		MemoryLimitBytes:   params.RawCacheBytes,
		IOLimitBytesPerSec: params.IOLimitBytesPerSec,
	})
	h.raw = nil
	h.access = h.store
	if params.RawCacheBytes > 0 {
		h.raw = cache.NewLRUBlockCache(params.RawCacheBytes, h.rc)
		// Stored blobs do not change while a run is being read.
		if mode == ModeRead {
			h.access = blobstore.NewCachingStore(h.store, h.raw, blobstore.DefaultBlockSize)
		}
	}

	h.base = base
	h.params = params
	h.mode = mode
	h.comm = params.Comm
	h.seen.Clear()
	h.open = true
	h.opts.logger.Debug("handle cache opened", "base", base, "mode", mode.String(), "rank", h.comm.Rank())
	return nil
}

// IsOpen reports whether the cache is open.
func (h *Cache[T]) IsOpen() bool { return h.open }

// Len returns the number of open containers.
func (h *Cache[T]) Len() int { return h.lru.Len() }

// Seen returns a copy of the ids requested since Open.
func (h *Cache[T]) Seen() *roaring.Bitmap { return h.seen.Clone() }

// Get returns the container of iteration id, opening it when needed.
func (h *Cache[T]) Get(ctx context.Context, id uint32) (*container.Container, error) {
	if !h.open {
		return nil, ErrNotOpen
	}
	if el, ok := h.entries[id]; ok {
		h.lru.MoveToFront(el)
		return el.Value.(*entry).c, nil
	}

	c, err := h.load(ctx, id)
	if err != nil {
		return nil, err
	}
	h.seen.Add(id)

	for h.lru.Len() >= h.opts.maxHandles {
		if err := h.evict(ctx, h.lru.Back()); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	h.entries[id] = h.lru.PushFront(&entry{id: id, c: c})
	return c, nil
}

func (h *Cache[T]) load(ctx context.Context, id uint32) (*container.Container, error) {
	name := FullName(h.base, id, h.params.Extension)
	opts := h.containerOptions()

	var (
		c       *container.Container
		created bool
		err     error
	)
	switch h.mode {
	case ModeCreate:
		if h.seen.Contains(id) {
			// Truncated earlier in this run and evicted since.
			c, err = container.Open(ctx, h.access, name, container.ModeReadWrite, opts...)
			break
		}
		if c, err = h.truncate(ctx, name, opts); err != nil {
			return nil, err
		}
		created = true
	case ModeWrite:
		c, created, err = container.OpenOrCreate(ctx, h.access, name, opts...)
	default:
		c, err = container.Open(ctx, h.access, name, container.ModeReadOnly, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("handles: open %s: %w", name, err)
	}

	cb, user := h.onOpen, h.onOpenUser
	if created {
		cb, user = h.onCreate, h.onCreateUser
	}
	if cb != nil {
		if err := cb(ctx, c, id, user); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	h.opts.logger.DebugContext(ctx, "container ready", "name", name, "created", created, "rank", h.comm.Rank())
	return c, nil
}

// truncate recreates name collectively: rank 0 discards the old contents,
// then all ranks meet at a barrier before opening it.
func (h *Cache[T]) truncate(ctx context.Context, name string, opts []container.Option) (*container.Container, error) {
	var createErr error
	if h.comm.Rank() == 0 {
		var c *container.Container
		c, createErr = container.Create(ctx, h.access, name, opts...)
		if createErr == nil {
			createErr = c.Close()
		}
	}
	// Rank 0 joins the barrier even after a failure so peers are released.
	if err := h.comm.Barrier(ctx); err != nil {
		return nil, fmt.Errorf("handles: create %s: %w", name, err)
	}
	if createErr != nil {
		return nil, fmt.Errorf("handles: create %s: %w", name, createErr)
	}
	c, err := container.Open(ctx, h.access, name, container.ModeReadWrite, opts...)
	if err != nil {
		return nil, fmt.Errorf("handles: open %s: %w", name, err)
	}
	return c, nil
}

func (h *Cache[T]) containerOptions() []container.Option {
	opts := []container.Option{
		container.WithCompression(h.params.Compression),
		container.WithResourceController(h.rc),
		container.WithLogger(h.opts.logger),
	}
	if h.raw != nil {
		opts = append(opts, container.WithCache(h.raw))
	}
	return append(opts, h.opts.container...)
}

func (h *Cache[T]) evict(ctx context.Context, el *list.Element) error {
	e := el.Value.(*entry)
	h.lru.Remove(el)
	delete(h.entries, e.id)
	h.opts.logger.DebugContext(ctx, "container evicted", "id", e.id)
	if err := e.c.Close(); err != nil {
		return fmt.Errorf("handles: close %d: %w", e.id, err)
	}
	return nil
}

// Close closes every open container and returns the cache to its closed
// state. Closing a closed cache is a no-op.
func (h *Cache[T]) Close() error {
	if !h.open {
		return nil
	}
	var result *multierror.Error
	for el := h.lru.Back(); el != nil; el = h.lru.Back() {
		if err := h.evict(context.Background(), el); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if h.raw != nil {
		if err := h.raw.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		h.raw = nil
	}
	h.open = false
	h.opts.logger.Debug("handle cache closed", "base", h.base)
	return result.ErrorOrNil()
}
