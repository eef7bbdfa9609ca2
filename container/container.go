package container

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/codec"
	"github.com/hupe1980/splash/internal/cache"
)

// Format identifies the container layout in the manifest.
const Format = "splash-container"

// Version is the layout version written by this package.
const Version = 1

const (
	manifestBlob = ".container"
	groupBlob    = ".group"
	arrayBlob    = ".array"
	attrsDir     = ".attrs"
	slabsDir     = "slabs"
)

// Mode selects how a container is opened.
type Mode uint8

const (
	// ModeReadOnly rejects every write with ErrReadOnly.
	ModeReadOnly Mode = iota
	// ModeReadWrite allows writes.
	ModeReadWrite
)

func (m Mode) String() string {
	if m == ModeReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Container is an open container.
type Container struct {
	store  blobstore.BlobStore
	name   string
	mode   Mode
	opts   options
	codec  codec.Codec
	open   atomic.Int64
	closed atomic.Bool
}

// Create creates the container name, discarding anything stored under it.
func Create(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Container, error) {
	if err := Remove(ctx, store, name, opts...); err != nil {
		return nil, err
	}
	return create(ctx, store, name, applyOptions(opts))
}

// OpenOrCreate opens name read-write, creating it without truncation when it
// does not exist. created reports whether the manifest was written.
func OpenOrCreate(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (c *Container, created bool, err error) {
	ok, err := Exists(ctx, store, name)
	if err != nil {
		return nil, false, err
	}
	if ok {
		c, err = Open(ctx, store, name, ModeReadWrite, opts...)
		return c, false, err
	}
	c, err = create(ctx, store, name, applyOptions(opts))
	return c, err == nil, err
}

func create(ctx context.Context, store blobstore.BlobStore, name string, o options) (*Container, error) {
	if err := checkPath(name); err != nil {
		return nil, err
	}
	data, err := codec.EncodeManifest(o.codec, codec.Manifest{Format: Format, Version: Version})
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, path.Join(name, manifestBlob), data); err != nil {
		return nil, fmt.Errorf("container: create %s: %w", name, err)
	}
	o.logger.DebugContext(ctx, "container created", "name", name)
	return &Container{store: store, name: name, mode: ModeReadWrite, opts: o, codec: o.codec}, nil
}

// Open opens an existing container.
func Open(ctx context.Context, store blobstore.BlobStore, name string, mode Mode, opts ...Option) (*Container, error) {
	if err := checkPath(name); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	data, err := blobstore.ReadAll(ctx, store, path.Join(name, manifestBlob))
	if err != nil {
		return nil, translate(err, name)
	}
	m, c, err := codec.DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s manifest: %v", ErrCorrupt, name, err)
	}
	if m.Format != Format || m.Version > Version {
		return nil, fmt.Errorf("%w: %s has format %q version %d", ErrCorrupt, name, m.Format, m.Version)
	}

	o.logger.DebugContext(ctx, "container opened", "name", name, "mode", mode.String())
	return &Container{store: store, name: name, mode: mode, opts: o, codec: c}, nil
}

// Exists reports whether a container manifest is stored under name.
func Exists(ctx context.Context, store blobstore.BlobStore, name string) (bool, error) {
	if err := checkPath(name); err != nil {
		return false, err
	}
	return blobstore.Exists(ctx, store, path.Join(name, manifestBlob))
}

// Remove deletes every blob of container name. Cached slabs of the
// container are dropped when a cache is configured.
func Remove(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) error {
	if err := checkPath(name); err != nil {
		return err
	}
	o := applyOptions(opts)
	if o.cache != nil {
		o.cache.Invalidate(cache.PathPrefix(name + "/"))
	}
	if err := blobstore.DeletePrefix(ctx, store, name+"/"); err != nil {
		return fmt.Errorf("container: remove %s: %w", name, err)
	}
	return nil
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// Mode returns the open mode.
func (c *Container) Mode() Mode { return c.mode }

// Codec returns the metadata codec.
func (c *Container) Codec() codec.Codec { return c.codec }

// OpenHandles returns the number of open groups and arrays.
func (c *Container) OpenHandles() int { return int(c.open.Load()) }

// Close closes the container. Handles still open become unusable.
func (c *Container) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if n := c.open.Load(); n > 0 {
		c.opts.logger.Debug("container closed with open handles", "name", c.name, "handles", n)
	} else {
		c.opts.logger.Debug("container closed", "name", c.name)
	}
	return nil
}

func (c *Container) check(write bool) error {
	if c.closed.Load() {
		return fmt.Errorf("%w: %s", ErrClosed, c.name)
	}
	if write && c.mode != ModeReadWrite {
		return fmt.Errorf("%w: %s", ErrReadOnly, c.name)
	}
	return nil
}

func (c *Container) blob(elems ...string) string {
	return path.Join(append([]string{c.name}, elems...)...)
}

func (c *Container) exists(ctx context.Context, name string) (bool, error) {
	return blobstore.Exists(ctx, c.store, name)
}

// CreateGroup creates the group at p, including missing parents. Creating
// an existing group is not an error.
func (c *Container) CreateGroup(ctx context.Context, p string) (*Group, error) {
	if err := c.check(true); err != nil {
		return nil, err
	}
	if err := checkPath(p); err != nil {
		return nil, err
	}
	elems := strings.Split(p, "/")
	for i := range elems {
		marker := c.blob(append(elems[:i+1:i+1], groupBlob)...)
		ok, err := c.exists(ctx, marker)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		if err := c.store.Put(ctx, marker, []byte("{}")); err != nil {
			return nil, fmt.Errorf("container: create group %s: %w", p, err)
		}
	}
	return c.newGroup(p), nil
}

// OpenGroup opens the existing group at p.
func (c *Container) OpenGroup(ctx context.Context, p string) (*Group, error) {
	if err := c.check(false); err != nil {
		return nil, err
	}
	if err := checkPath(p); err != nil {
		return nil, err
	}
	ok, err := c.exists(ctx, c.blob(p, groupBlob))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: group %s in %s", ErrNotFound, p, c.name)
	}
	return c.newGroup(p), nil
}

// OpenOrCreateGroup opens p, creating it when the container is writable.
func (c *Container) OpenOrCreateGroup(ctx context.Context, p string) (*Group, error) {
	g, err := c.OpenGroup(ctx, p)
	if err == nil || !errors.Is(err, ErrNotFound) || c.mode != ModeReadWrite {
		return g, err
	}
	return c.CreateGroup(ctx, p)
}

func (c *Container) newGroup(p string) *Group {
	c.open.Add(1)
	return &Group{attrs: attrs{c: c, dir: p}, path: p}
}

// checkPath validates a '/'-separated name. Components may not be empty,
// relative, or start with '.', which is reserved for metadata blobs.
func checkPath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for _, e := range strings.Split(p, "/") {
		if e == "" || strings.HasPrefix(e, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidName, p)
		}
	}
	return nil
}

// checkName validates a single path component.
func checkName(n string) error {
	if strings.Contains(n, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, n)
	}
	return checkPath(n)
}

func translate(err error, what string) error {
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
