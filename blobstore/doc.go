// Package blobstore is the storage abstraction under every data container.
//
// A container is a set of small immutable blobs sharing a name prefix, so
// any backend that can put, read, list and delete named byte strings can
// hold collector output. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process maps, for tests
//   - LocalStore: a directory tree with atomic writes and mmap reads
//   - CachingStore: block cache in front of any other store
//   - s3.Store: Amazon S3 via aws-sdk-go-v2
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
