package container

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
	"github.com/hupe1980/splash/internal/cache"
	"github.com/hupe1980/splash/internal/compress"
)

// defaultFetchers bounds slab fetches when no resource controller is set.
const defaultFetchers = 4

type descriptor struct {
	Type       dtype.Type `json:"type"`
	Shape      []uint64   `json:"shape"`
	Compressor string     `json:"compressor"`
}

// Array is an open n-dimensional array.
type Array struct {
	attrs
	path   string
	desc   descriptor
	dims   grid.Dimensions
	codec  compress.Codec
	slabID string
	closed atomic.Bool
}

// Path returns the array path inside its container.
func (a *Array) Path() string { return a.path }

// Type returns the element type.
func (a *Array) Type() dtype.Type { return a.desc.Type }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.desc.Shape) }

// Dims returns the logical (x, y, z) extents. Unused axes are 1.
func (a *Array) Dims() grid.Dimensions { return a.dims }

// Shape returns the extents in backend axis order.
func (a *Array) Shape() []uint64 { return append([]uint64(nil), a.desc.Shape...) }

// Compression returns the slab codec.
func (a *Array) Compression() compress.Codec { return a.codec }

// Close releases the handle. Closing twice is a no-op.
func (a *Array) Close() error {
	if !a.closed.Swap(true) {
		a.c.open.Add(-1)
	}
	return nil
}

func (a *Array) check(write bool) error {
	if a.closed.Load() {
		return fmt.Errorf("%w: array %s", ErrClosed, a.path)
	}
	return a.c.check(write)
}

// WriteSlab copies the selection sel out of data and stores it at offset
// at of the array. data is a slice of the array's element type laid out
// x-fastest with shape sel.Buffer. Empty selections store nothing.
func (a *Array) WriteSlab(ctx context.Context, sel Selection, at grid.Dimensions, data any) error {
	if err := a.check(true); err != nil {
		return err
	}
	if err := dtype.Check(a.desc.Type, data); err != nil {
		return err
	}
	n, err := dtype.Len(data)
	if err != nil {
		return err
	}
	if err := sel.Validate(n); err != nil {
		return err
	}
	if sel.Empty() {
		return nil
	}
	dst := region{off: at, count: sel.Count}
	if !dst.inside(a.dims) {
		return fmt.Errorf("%w: slab at %s of %s exceeds array %s", ErrInvalidSelection, at, sel.Count, a.dims)
	}

	raw, err := dtype.Encode(a.desc.Type, data)
	if err != nil {
		return err
	}
	block, err := compress.Encode(a.codec, sel.gather(raw, a.desc.Type.Size()))
	if err != nil {
		return err
	}
	if err := a.c.opts.rc.AcquireIO(ctx, len(block)); err != nil {
		return err
	}

	existing, err := a.slabs(ctx)
	if err != nil {
		return err
	}
	var gen uint64
	for _, sl := range existing {
		if _, ok := sl.r.intersect(dst); ok && sl.gen >= gen {
			gen = sl.gen + 1
		}
	}

	name := a.slabID + slabKey(dst, gen)
	if err := a.c.store.Put(ctx, name, block); err != nil {
		return fmt.Errorf("container: write slab %s: %w", name, err)
	}

	// Slabs hidden entirely by the new one are never read again.
	for _, sl := range existing {
		if !dst.covers(sl.r) {
			continue
		}
		if c := a.c.opts.cache; c != nil {
			c.Invalidate(func(k cache.CacheKey) bool { return k.Kind == cache.CacheKindSlab && k.Path == sl.name })
		}
		if err := a.c.store.Delete(ctx, sl.name); err != nil {
			return fmt.Errorf("container: drop slab %s: %w", sl.name, err)
		}
	}
	return nil
}

type slab struct {
	name string
	r    region
	gen  uint64
}

// slabs lists the stored slabs of the array, oldest generation first.
func (a *Array) slabs(ctx context.Context) ([]slab, error) {
	names, err := a.c.store.List(ctx, a.slabID)
	if err != nil {
		return nil, err
	}
	out := make([]slab, 0, len(names))
	for _, name := range names {
		r, gen, ok := parseSlabKey(strings.TrimPrefix(name, a.slabID))
		if !ok {
			continue
		}
		out = append(out, slab{name: name, r: r, gen: gen})
	}
	slices.SortStableFunc(out, func(x, y slab) int { return cmp.Compare(x.gen, y.gen) })
	return out, nil
}

// ReadRegion returns the dense little-endian bytes of the box at off with
// extents count. Where slabs overlap the most recent write wins.
func (a *Array) ReadRegion(ctx context.Context, off, count grid.Dimensions) ([]byte, error) {
	if err := a.check(false); err != nil {
		return nil, err
	}
	want := region{off: off, count: count}
	if !want.inside(a.dims) {
		return nil, fmt.Errorf("%w: region at %s of %s exceeds array %s", ErrInvalidSelection, off, count, a.dims)
	}
	es := a.desc.Type.Size()
	out := make([]byte, count.Size()*uint64(es))
	if len(out) == 0 {
		return out, nil
	}

	stored, err := a.slabs(ctx)
	if err != nil {
		return nil, err
	}

	type hit struct {
		name       string
		slab, part region
		data       []byte
	}
	var hits []*hit
	for _, sl := range stored {
		if part, ok := sl.r.intersect(want); ok {
			hits = append(hits, &hit{name: sl.name, slab: sl.r, part: part})
		}
	}

	rc := a.c.opts.rc
	g, gctx := errgroup.WithContext(ctx)
	if n := rc.MaxWorkers(); n > 0 {
		g.SetLimit(n)
	} else {
		g.SetLimit(defaultFetchers)
	}
	for _, h := range hits {
		g.Go(func() error {
			if err := rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()
			data, err := a.loadSlab(gctx, h.name, h.slab.count.Size()*uint64(es))
			h.data = data
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, h := range hits {
		dense := h.slab.within(h.part).gather(h.data, es)
		want.within(h.part).scatter(out, dense, es)
	}
	return out, nil
}

func (a *Array) loadSlab(ctx context.Context, name string, size uint64) ([]byte, error) {
	key := cache.CacheKey{Kind: cache.CacheKindSlab, Path: name}
	c := a.c.opts.cache
	if c != nil {
		if data, ok := c.Get(ctx, key); ok {
			return data, nil
		}
	}

	block, err := blobstore.ReadAll(ctx, a.c.store, name)
	if err != nil {
		return nil, translate(err, "slab "+name)
	}
	if err := a.c.opts.rc.AcquireIO(ctx, len(block)); err != nil {
		return nil, err
	}
	data, err := compress.Decode(block)
	if err != nil {
		return nil, fmt.Errorf("slab %s: %w", name, err)
	}
	if uint64(len(data)) != size {
		return nil, fmt.Errorf("%w: slab %s holds %d bytes, want %d", ErrCorrupt, name, len(data), size)
	}
	if c != nil {
		c.Set(ctx, key, data)
	}
	return data, nil
}

// Read decodes the whole array into dst.
func (a *Array) Read(ctx context.Context, dst any) error {
	return a.ReadSelection(ctx, grid.Zero(), a.dims, dst)
}

// ReadSelection decodes the box at off with extents count into dst.
func (a *Array) ReadSelection(ctx context.Context, off, count grid.Dimensions, dst any) error {
	if err := dtype.Check(a.desc.Type, dst); err != nil {
		return err
	}
	raw, err := a.ReadRegion(ctx, off, count)
	if err != nil {
		return err
	}
	return dtype.Decode(a.desc.Type, raw, dst)
}

// ReadInto reads the box at off with extents sel.Count and places it at
// the selection sel of the buffer dst. Elements of dst outside sel are
// left untouched.
func (a *Array) ReadInto(ctx context.Context, off grid.Dimensions, sel Selection, dst any) error {
	if err := dtype.Check(a.desc.Type, dst); err != nil {
		return err
	}
	n, err := dtype.Len(dst)
	if err != nil {
		return err
	}
	if err := sel.Validate(n); err != nil {
		return err
	}
	raw, err := a.ReadRegion(ctx, off, sel.Count)
	if err != nil {
		return err
	}
	buf, err := dtype.Encode(a.desc.Type, dst)
	if err != nil {
		return err
	}
	sel.scatter(buf, raw, a.desc.Type.Size())
	return dtype.Decode(a.desc.Type, buf, dst)
}

// slabKey names a slab by its logical offset, extents and generation,
// e.g. "0.4.0_4.4.1_0". A slab gets a generation above every slab it
// overlaps.
func slabKey(r region, gen uint64) string {
	var b strings.Builder
	for i, v := range [7]uint64{r.off[0], r.off[1], r.off[2], r.count[0], r.count[1], r.count[2], gen} {
		switch i {
		case 0:
		case 3, 6:
			b.WriteByte('_')
		default:
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(v, 10))
	}
	return b.String()
}

func parseSlabKey(key string) (region, uint64, bool) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return region{}, 0, false
	}
	gen, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return region{}, 0, false
	}
	var r region
	for i, part := range parts[:2] {
		fields := strings.Split(part, ".")
		if len(fields) != 3 {
			return region{}, 0, false
		}
		for j, f := range fields {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				return region{}, 0, false
			}
			if i == 0 {
				r.off[j] = v
			} else {
				r.count[j] = v
			}
		}
	}
	return r, gen, true
}
