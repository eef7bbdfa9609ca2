package grid

import (
	"fmt"
	"strconv"
)

// Dimensions holds three unsigned extents (x, y, z).
//
// The value is immutable; every operation returns a new Dimensions.
type Dimensions [3]uint64

// New returns Dimensions (x, y, z).
func New(x, y, z uint64) Dimensions {
	return Dimensions{x, y, z}
}

// One returns (1,1,1), the identity for offset and stride arithmetic.
func One() Dimensions {
	return Dimensions{1, 1, 1}
}

// Zero returns (0,0,0).
func Zero() Dimensions {
	return Dimensions{}
}

// X returns the first component.
func (d Dimensions) X() uint64 { return d[0] }

// Y returns the second component.
func (d Dimensions) Y() uint64 { return d[1] }

// Z returns the third component.
func (d Dimensions) Z() uint64 { return d[2] }

// Add returns d + o elementwise.
func (d Dimensions) Add(o Dimensions) Dimensions {
	return Dimensions{d[0] + o[0], d[1] + o[1], d[2] + o[2]}
}

// Sub returns d - o elementwise. Components wrap like unsigned integers.
func (d Dimensions) Sub(o Dimensions) Dimensions {
	return Dimensions{d[0] - o[0], d[1] - o[1], d[2] - o[2]}
}

// Mul returns d * o elementwise.
func (d Dimensions) Mul(o Dimensions) Dimensions {
	return Dimensions{d[0] * o[0], d[1] * o[1], d[2] * o[2]}
}

// Div returns d / o elementwise. Division by a zero component panics.
func (d Dimensions) Div(o Dimensions) Dimensions {
	return Dimensions{d[0] / o[0], d[1] / o[1], d[2] / o[2]}
}

// Size returns the total number of elements x*y*z.
func (d Dimensions) Size() uint64 {
	return d[0] * d[1] * d[2]
}

// Swap reorders the components for the given rank. Rank 2 swaps the first
// two components, rank 3 reverses all three, any other rank leaves d unchanged.
//
// The container backend stores multi-dimensional arrays with the slowest
// axis first, the reverse of the logical (x, y, z) order.
func (d Dimensions) Swap(rank int) Dimensions {
	switch rank {
	case 2:
		return Dimensions{d[1], d[0], d[2]}
	case 3:
		return Dimensions{d[2], d[1], d[0]}
	default:
		return d
	}
}

// Shape returns the first rank components of d in backend axis order.
func (d Dimensions) Shape(rank int) []uint64 {
	if rank < 1 || rank > 3 {
		return nil
	}
	s := d.Swap(rank)
	out := make([]uint64, rank)
	copy(out, s[:rank])
	return out
}

// FromShape is the inverse of Shape. Missing trailing components are 1.
func FromShape(shape []uint64) (Dimensions, error) {
	rank := len(shape)
	if rank < 1 || rank > 3 {
		return Dimensions{}, fmt.Errorf("grid: invalid shape rank %d", rank)
	}
	d := One()
	copy(d[:], shape)
	return d.Swap(rank), nil
}

// String returns "(x,y,z)".
func (d Dimensions) String() string {
	return "(" + strconv.FormatUint(d[0], 10) + "," +
		strconv.FormatUint(d[1], 10) + "," +
		strconv.FormatUint(d[2], 10) + ")"
}
