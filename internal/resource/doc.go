// Package resource bounds what a collector may consume while it moves data
// between ranks and the blob store.
//
// A Controller governs three budgets:
//
//   - Memory: bytes pinned by the raw-data cache (fail-fast, never blocks)
//   - Workers: concurrent slab fetches during a region read
//   - IO: a token bucket over bytes written to or read from the store
//
// Every method is a no-op on a nil *Controller, so callers that run
// unlimited simply pass nil.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    MaxWorkers:         8,
//	    IOLimitBytesPerSec: 100 << 20,
//	})
package resource
