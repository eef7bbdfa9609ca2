package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/splash/internal/cache"
)

// DefaultBlockSize is the cache granularity used when none is given.
const DefaultBlockSize = 64 << 10

// maxFetchers bounds concurrent backend reads while filling the cache.
const maxFetchers = 16

// CachingStore serves reads of an inner store through a block cache.
// Writes and deletes pass through and invalidate the affected blocks.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

var _ BlobStore = (*CachingStore)(nil)

// NewCachingStore wraps inner. blockSize defaults to DefaultBlockSize.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &CachingStore{inner: inner, cache: c, blockSize: blockSize}
}

// Inner returns the wrapped store.
func (s *CachingStore) Inner() BlobStore { return s.inner }

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{inner: b, cache: s.cache, name: name, blockSize: s.blockSize}, nil
}

func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingBlob{WritableBlob: w, invalidate: func() { s.invalidate(name) }}, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	defer s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	defer s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.CacheKey) bool {
		return key.Kind == cache.CacheKindBlob && key.Path == name
	})
}

type invalidatingBlob struct {
	WritableBlob
	invalidate func()
}

func (b *invalidatingBlob) Close() error {
	defer b.invalidate()
	return b.WritableBlob.Close()
}

// cachingBlob reads through the block cache.
type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) key(blk int64) cache.CacheKey {
	return cache.CacheKey{Kind: cache.CacheKindBlob, Path: b.name, Offset: uint64(blk)}
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), size)

	first := off / b.blockSize
	last := (end - 1) / b.blockSize

	blocks, err := b.blocks(ctx, first, last)
	if err != nil {
		return 0, err
	}

	n := 0
	for i, data := range blocks {
		blkStart := (first + int64(i)) * b.blockSize
		lo := max(off, blkStart) - blkStart
		hi := min(end, blkStart+int64(len(data))) - blkStart
		if hi <= lo {
			break
		}
		n += copy(p[n:], data[lo:hi])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// blocks returns blocks first..last, fetching contiguous runs of missing
// blocks with one backend read each.
func (b *cachingBlob) blocks(ctx context.Context, first, last int64) ([][]byte, error) {
	out := make([][]byte, last-first+1)

	type run struct{ start, count int64 }
	var missing []run
	for blk := first; blk <= last; blk++ {
		if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
			out[blk-first] = data
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{blk, 1})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchers)
	for _, r := range missing {
		g.Go(func() error {
			start := r.start * b.blockSize
			length := min(r.count*b.blockSize, b.Size()-start)
			buf := make([]byte, length)
			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]
			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				// Copy so one cached block does not pin the whole run.
				blk := append([]byte(nil), buf[lo:min(lo+b.blockSize, int64(len(buf)))]...)
				out[r.start+i-first] = blk
				b.cache.Set(gctx, b.key(r.start+i), blk)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(&sectionReader{ctx: ctx, blob: b, off: off, limit: off + length}), nil
}

// sectionReader adapts a context-aware ReadAt to io.Reader.
type sectionReader struct {
	ctx   context.Context
	blob  Blob
	off   int64
	limit int64
}

func (r *sectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
