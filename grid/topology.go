package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidTopology is returned when a grid or rank cannot describe a run.
var ErrInvalidTopology = errors.New("grid: invalid topology")

// Topology is the immutable description of one process inside the grid.
type Topology struct {
	size Dimensions
	rank int
	pos  Dimensions
}

// NewTopology validates size and rank and derives the rank's grid position.
// Every size component must be at least 1 and rank must be in [0, size.Size()).
func NewTopology(size Dimensions, rank int) (Topology, error) {
	if size[0] == 0 || size[1] == 0 || size[2] == 0 {
		return Topology{}, fmt.Errorf("%w: grid size %s has a zero component", ErrInvalidTopology, size)
	}
	if rank < 0 || uint64(rank) >= size.Size() {
		return Topology{}, fmt.Errorf("%w: rank %d outside grid %s", ErrInvalidTopology, rank, size)
	}
	return Topology{
		size: size,
		rank: rank,
		pos:  PositionFromRank(rank, size),
	}, nil
}

// Single returns the topology of a non-parallel run: grid (1,1,1), rank 0.
func Single() Topology {
	return Topology{size: One(), rank: 0, pos: Zero()}
}

// Size returns the grid size.
func (t Topology) Size() Dimensions { return t.size }

// Rank returns the linear rank.
func (t Topology) Rank() int { return t.rank }

// Position returns the rank's grid position.
func (t Topology) Position() Dimensions { return t.pos }

// Offset returns where a block of the given local shape starts in the global array.
func (t Topology) Offset(local Dimensions) Dimensions {
	return GlobalOffset(local, t.pos)
}

// Extent returns the global array shape when every rank owns a block of the
// given local shape.
func (t Topology) Extent(local Dimensions) Dimensions {
	return GlobalExtent(local, t.size)
}

func (t Topology) String() string {
	return fmt.Sprintf("rank %d at %s of %s", t.rank, t.pos, t.size)
}

// PositionFromRank maps a linear rank to its grid position, x varying fastest.
func PositionFromRank(rank int, size Dimensions) Dimensions {
	r := uint64(rank)
	plane := size[0] * size[1]
	return Dimensions{
		r % size[0],
		(r % plane) / size[0],
		r / plane,
	}
}

// RankFromPosition is the inverse of PositionFromRank.
func RankFromPosition(pos, size Dimensions) int {
	return int(pos[0] + pos[1]*size[0] + pos[2]*size[0]*size[1])
}

// GlobalOffset returns local * pos.
func GlobalOffset(local, pos Dimensions) Dimensions {
	return local.Mul(pos)
}

// GlobalExtent returns local * size.
func GlobalExtent(local, size Dimensions) Dimensions {
	return local.Mul(size)
}
