// Package cache holds recently used byte blocks in memory.
//
// The blob layer caches fixed-size blocks of remote objects under
// CacheKindBlob; the container layer caches decompressed slabs under
// CacheKindSlab. Both share one byte budget, which may additionally be
// charged against a resource.Controller.
package cache
