package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// BlobStore is a flat namespace of immutable byte blobs.
// Names use '/' as separator regardless of the backend.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts a streaming write. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	// ReadAt reads len(p) bytes at off. It returns io.EOF when fewer
	// bytes are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// WritableBlob is an in-progress streaming write.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Mappable is implemented by blobs that can expose their bytes without
// copying. The slice is valid until the blob is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// ReadAll returns the full content of a blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	out := make([]byte, b.Size())
	n, err := b.ReadAt(ctx, out, 0)
	if err != nil && (err != io.EOF || int64(n) != b.Size()) {
		return nil, err
	}
	return out[:n], nil
}

// DeletePrefix removes every blob whose name starts with prefix.
func DeletePrefix(ctx context.Context, store BlobStore, prefix string) error {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether the blob name is stored.
func Exists(ctx context.Context, store BlobStore, name string) (bool, error) {
	b, err := store.Open(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, b.Close()
}
