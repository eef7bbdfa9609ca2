package cache

import "context"

// CacheKind separates key spaces that share one cache.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindBlob              // fixed-size blocks of a stored blob
	CacheKindSlab              // decompressed slab payloads
)

// CacheKey identifies a block. Path names the blob; Offset is a block index
// within it.
type CacheKey struct {
	Kind   CacheKind
	Path   string
	Offset uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. The cache retains b; callers must not modify it.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases the cache's memory.
	Close() error
	// Stats returns hit and miss counters.
	Stats() (hits, misses int64)
}

// PathPrefix matches keys of any kind whose Path starts with prefix.
func PathPrefix(prefix string) func(CacheKey) bool {
	return func(k CacheKey) bool {
		return len(k.Path) >= len(prefix) && k.Path[:len(prefix)] == prefix
	}
}
