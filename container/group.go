package container

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
	"github.com/hupe1980/splash/internal/compress"
)

// Group is an open group.
type Group struct {
	attrs
	path   string
	closed atomic.Bool
}

// Path returns the group path inside its container.
func (g *Group) Path() string { return g.path }

// Close releases the handle. Closing twice is a no-op.
func (g *Group) Close() error {
	if !g.closed.Swap(true) {
		g.c.open.Add(-1)
	}
	return nil
}

func (g *Group) check(write bool) error {
	if g.closed.Load() {
		return fmt.Errorf("%w: group %s", ErrClosed, g.path)
	}
	return g.c.check(write)
}

// ArrayOptions tunes array creation.
type ArrayOptions struct {
	// Compress stores slabs with the container's compression codec.
	Compress bool
}

// CreateArray creates the array name with element type t and logical
// extents dims of the given rank (1..3). Extents beyond rank are ignored. When the array already exists it
// is opened instead, provided type, rank and extents agree; otherwise
// ErrShapeMismatch is returned.
func (g *Group) CreateArray(ctx context.Context, name string, t dtype.Type, rank int, dims grid.Dimensions, ao ArrayOptions) (*Array, error) {
	if err := g.check(true); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", dtype.ErrUnknownType, t)
	}
	if rank < 1 || rank > 3 {
		return nil, fmt.Errorf("%w: rank %d", ErrInvalidSelection, rank)
	}
	// Axes beyond the rank do not exist on the backend.
	for i := rank; i < 3; i++ {
		dims[i] = 1
	}

	want := descriptor{Type: t, Shape: dims.Shape(rank), Compressor: compress.None.String()}
	if ao.Compress {
		want.Compressor = g.c.opts.compression.String()
	}

	existing, err := g.OpenArray(ctx, name)
	switch {
	case err == nil:
		if existing.desc.Type != t || !slices.Equal(existing.desc.Shape, want.Shape) {
			_ = existing.Close()
			return nil, fmt.Errorf("%w: %s is %s%v, want %s%v", ErrShapeMismatch, name,
				existing.desc.Type, existing.desc.Shape, t, want.Shape)
		}
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	data, err := g.c.codec.Marshal(want)
	if err != nil {
		return nil, err
	}
	if err := g.c.store.Put(ctx, g.c.blob(g.path, name, arrayBlob), data); err != nil {
		return nil, fmt.Errorf("container: create array %s: %w", name, err)
	}
	return g.newArray(name, want)
}

// OpenArray opens the existing array name.
func (g *Group) OpenArray(ctx context.Context, name string) (*Array, error) {
	if err := g.check(false); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, g.c.store, g.c.blob(g.path, name, arrayBlob))
	if err != nil {
		return nil, translate(err, "array "+g.path+"/"+name)
	}
	var d descriptor
	if err := g.c.codec.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: array %s: %v", ErrCorrupt, name, err)
	}
	return g.newArray(name, d)
}

// Arrays returns the sorted names of the group's arrays.
func (g *Group) Arrays(ctx context.Context) ([]string, error) {
	if err := g.check(false); err != nil {
		return nil, err
	}
	prefix := g.c.blob(g.path) + "/"
	blobs, err := g.c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, b := range blobs {
		rel := strings.TrimPrefix(b, prefix)
		if name, ok := strings.CutSuffix(rel, "/"+arrayBlob); ok && !strings.Contains(name, "/") {
			names = append(names, name)
		}
	}
	return names, nil
}

func (g *Group) newArray(name string, d descriptor) (*Array, error) {
	dims, err := grid.FromShape(d.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: array %s: %v", ErrCorrupt, name, err)
	}
	if !d.Type.Valid() {
		return nil, fmt.Errorf("%w: array %s has type %s", ErrCorrupt, name, d.Type)
	}
	codec, err := compress.ParseCodec(d.Compressor)
	if err != nil {
		return nil, fmt.Errorf("%w: array %s: %v", ErrCorrupt, name, err)
	}
	p := g.path + "/" + name
	g.c.open.Add(1)
	return &Array{
		attrs:  attrs{c: g.c, dir: p},
		path:   p,
		desc:   d,
		dims:   dims,
		codec:  codec,
		slabID: g.c.blob(p, slabsDir) + "/",
	}, nil
}
