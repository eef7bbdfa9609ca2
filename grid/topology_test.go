package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionFromRank_Bijection(t *testing.T) {
	sizes := []Dimensions{
		New(1, 1, 1),
		New(2, 1, 1),
		New(1, 3, 1),
		New(1, 1, 4),
		New(3, 2, 1),
		New(2, 3, 4),
		New(5, 1, 3),
	}

	for _, size := range sizes {
		t.Run(size.String(), func(t *testing.T) {
			seen := make(map[Dimensions]int)
			for r := 0; r < int(size.Size()); r++ {
				pos := PositionFromRank(r, size)
				require.Less(t, pos.X(), size.X())
				require.Less(t, pos.Y(), size.Y())
				require.Less(t, pos.Z(), size.Z())

				prev, dup := seen[pos]
				require.False(t, dup, "ranks %d and %d share %s", prev, r, pos)
				seen[pos] = r

				assert.Equal(t, r, RankFromPosition(pos, size))
			}
			assert.Len(t, seen, int(size.Size()))
		})
	}
}

func TestPositionFromRank_ColumnMajor(t *testing.T) {
	size := New(2, 2, 2)
	want := []Dimensions{
		New(0, 0, 0), New(1, 0, 0), New(0, 1, 0), New(1, 1, 0),
		New(0, 0, 1), New(1, 0, 1), New(0, 1, 1), New(1, 1, 1),
	}
	for r, pos := range want {
		assert.Equal(t, pos, PositionFromRank(r, size), "rank %d", r)
	}
}

func TestSingleProcessAddressing(t *testing.T) {
	topo := Single()
	for _, local := range []Dimensions{New(1, 1, 1), New(10, 1, 1), New(4, 5, 6), New(0, 3, 2)} {
		assert.Equal(t, Zero(), topo.Offset(local))
		assert.Equal(t, local, topo.Extent(local))
	}
}

func TestTopology_OffsetExtent(t *testing.T) {
	topo, err := NewTopology(New(2, 1, 1), 1)
	require.NoError(t, err)

	local := New(4, 1, 1)
	assert.Equal(t, 1, topo.Rank())
	assert.Equal(t, New(1, 0, 0), topo.Position())
	assert.Equal(t, New(4, 0, 0), topo.Offset(local))
	assert.Equal(t, New(8, 1, 1), topo.Extent(local))
}

func TestNewTopology_Invalid(t *testing.T) {
	_, err := NewTopology(New(2, 0, 1), 0)
	require.ErrorIs(t, err, ErrInvalidTopology)

	_, err = NewTopology(New(2, 2, 1), 4)
	require.ErrorIs(t, err, ErrInvalidTopology)

	_, err = NewTopology(New(2, 2, 1), -1)
	require.ErrorIs(t, err, ErrInvalidTopology)
}
