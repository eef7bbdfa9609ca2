package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/splash/internal/mmap"
)

// LocalStore keeps blobs as files below a root directory. Writes go to a
// temporary file that is renamed into place, so readers never observe a
// partially written blob.
type LocalStore struct {
	root string
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at root. The directory is created
// lazily on the first write.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Root returns the store's directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open maps a blob read-only.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create starts a write into a temporary sibling file.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst := s.path(name)
	dir := filepath.Dir(dst)
	for attempt := 0; ; attempt++ {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
		if err == nil {
			return &localWritableBlob{f: f, dst: dst}, nil
		}
		// A concurrent Delete may prune the directory in between.
		if !errors.Is(err, fs.ErrNotExist) || attempt == 2 {
			return nil, err
		}
	}
}

// Put writes data atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.(*localWritableBlob).abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob and prunes directories left empty.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.path(name)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	root := filepath.Clean(s.root)
	for dir := filepath.Dir(p); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		// Fails on non-empty directories, which ends the walk.
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// List walks the tree and returns the sorted blob names with prefix.
// Temporary files of in-flight writes are skipped.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	// Only descend from the deepest directory the prefix pins down.
	start := s.root
	if strings.HasSuffix(prefix, "/") {
		start = s.path(prefix)
	} else if dir := path.Dir(prefix); dir != "." {
		start = s.path(dir)
	}

	var names []string
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") && strings.Contains(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(sliceRange(b.m.Bytes(), off, length))), nil
}

func (b *localBlob) Bytes() ([]byte, error) {
	_ = b.m.Advise(mmap.AccessSequential)
	return b.m.Bytes(), nil
}

func (b *localBlob) Size() int64 { return int64(b.m.Size()) }

func (b *localBlob) Close() error { return b.m.Close() }

type localWritableBlob struct {
	f      *os.File
	dst    string
	closed bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	if w.closed {
		return ErrClosed
	}
	return w.f.Sync()
}

// Close syncs the temporary file and renames it over the destination.
func (w *localWritableBlob) Close() error {
	if w.closed {
		return ErrClosed
	}
	if err := w.f.Sync(); err != nil {
		_ = w.abort()
		return err
	}
	w.closed = true
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), w.dst); err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}
	return nil
}

func (w *localWritableBlob) abort() error {
	w.closed = true
	_ = w.f.Close()
	return os.Remove(w.f.Name())
}
