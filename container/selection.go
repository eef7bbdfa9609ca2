package container

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/hupe1980/splash/grid"
)

// Selection picks a strided sub-block out of a dense, x-fastest buffer.
type Selection struct {
	// Buffer is the shape of the whole buffer.
	Buffer grid.Dimensions
	// Offset is the first selected element.
	Offset grid.Dimensions
	// Stride is the step between selected elements along each axis.
	Stride grid.Dimensions
	// Count is the number of selected elements along each axis.
	Count grid.Dimensions
}

// Dense selects all of a buffer of the given shape.
func Dense(shape grid.Dimensions) Selection {
	return Selection{Buffer: shape, Stride: grid.One(), Count: shape}
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return s.Count.Size() == 0 }

// Validate checks that the selection lies inside a buffer of n elements.
func (s Selection) Validate(n int) error {
	size, ok := volume(s.Buffer)
	if !ok || size > uint64(n) {
		return fmt.Errorf("%w: buffer %s needs %s elements, data holds %d",
			ErrInvalidSelection, s.Buffer, sizeString(size, ok), n)
	}
	count, ok := volume(s.Count)
	if !ok {
		return fmt.Errorf("%w: count %s overflows", ErrInvalidSelection, s.Count)
	}
	if count == 0 {
		return nil
	}
	for i := range 3 {
		if s.Stride[i] == 0 {
			return fmt.Errorf("%w: zero stride %s", ErrInvalidSelection, s.Stride)
		}
		hi, span := bits.Mul64(s.Count[i]-1, s.Stride[i])
		last, carry := bits.Add64(s.Offset[i], span, 0)
		if hi != 0 || carry != 0 || last >= s.Buffer[i] {
			return fmt.Errorf("%w: offset %s stride %s count %s exceeds buffer %s",
				ErrInvalidSelection, s.Offset, s.Stride, s.Count, s.Buffer)
		}
	}
	return nil
}

// volume multiplies the extents of d and reports false on overflow.
func volume(d grid.Dimensions) (uint64, bool) {
	if d[0] == 0 || d[1] == 0 || d[2] == 0 {
		return 0, true
	}
	v := uint64(1)
	for _, e := range d {
		hi, lo := bits.Mul64(v, e)
		if hi != 0 {
			return 0, false
		}
		v = lo
	}
	return v, true
}

func sizeString(v uint64, ok bool) string {
	if !ok {
		return "more than 2^64"
	}
	return strconv.FormatUint(v, 10)
}

// runs calls fn for each contiguous run of selected elements, passing the
// element index in the buffer, the element index in the dense selection and
// the run length in elements.
func (s Selection) runs(fn func(buf, dense, n uint64)) {
	if s.Empty() {
		return
	}
	bx, by := s.Buffer[0], s.Buffer[1]
	cx, cy, cz := s.Count[0], s.Count[1], s.Count[2]
	dense := uint64(0)
	for z := uint64(0); z < cz; z++ {
		bz := s.Offset[2] + z*s.Stride[2]
		for y := uint64(0); y < cy; y++ {
			row := (bz*by + s.Offset[1] + y*s.Stride[1]) * bx
			if s.Stride[0] == 1 {
				fn(row+s.Offset[0], dense, cx)
				dense += cx
				continue
			}
			for x := uint64(0); x < cx; x++ {
				fn(row+s.Offset[0]+x*s.Stride[0], dense, 1)
				dense++
			}
		}
	}
}

// gather copies the selected elements of buf into a new dense slice.
func (s Selection) gather(buf []byte, esize int) []byte {
	es := uint64(esize)
	out := make([]byte, s.Count.Size()*es)
	s.runs(func(b, d, n uint64) {
		copy(out[d*es:(d+n)*es], buf[b*es:(b+n)*es])
	})
	return out
}

// scatter copies dense into the selected elements of buf.
func (s Selection) scatter(buf, dense []byte, esize int) {
	es := uint64(esize)
	s.runs(func(b, d, n uint64) {
		copy(buf[b*es:(b+n)*es], dense[d*es:(d+n)*es])
	})
}

// region is an axis-aligned box of an array.
type region struct {
	off, count grid.Dimensions
}

func (r region) end(i int) uint64 { return r.off[i] + r.count[i] }

// intersect returns the overlap of r and o and whether it is non-empty.
func (r region) intersect(o region) (region, bool) {
	var out region
	for i := range 3 {
		lo := max(r.off[i], o.off[i])
		hi := min(r.end(i), o.end(i))
		if hi <= lo {
			return region{}, false
		}
		out.off[i] = lo
		out.count[i] = hi - lo
	}
	return out, true
}

// covers reports whether o lies entirely inside r.
func (r region) covers(o region) bool {
	for i := range 3 {
		if o.off[i] < r.off[i] || o.end(i) > r.end(i) {
			return false
		}
	}
	return true
}

// within returns the selection of sub inside the dense block r.
func (r region) within(sub region) Selection {
	return Selection{
		Buffer: r.count,
		Offset: sub.off.Sub(r.off),
		Stride: grid.One(),
		Count:  sub.count,
	}
}

func (r region) inside(dims grid.Dimensions) bool {
	for i := range 3 {
		if r.end(i) > dims[i] || r.end(i) < r.off[i] {
			return false
		}
	}
	return true
}
