package splash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
	"github.com/hupe1980/splash/testutil"
)

// sample returns n distinct values of type t and an empty destination
// pointer of the same Go type.
func sample(t dtype.Type, n int) (data, dst any) {
	switch t {
	case dtype.Int8:
		return testutil.Sequence[int8](n, -5), new([]int8)
	case dtype.Int16:
		return testutil.Sequence[int16](n, -300), new([]int16)
	case dtype.Int32:
		return testutil.Sequence[int32](n, -70000), new([]int32)
	case dtype.Int64:
		return testutil.Sequence[int64](n, -1<<40), new([]int64)
	case dtype.Uint8:
		return testutil.Sequence[uint8](n, 1), new([]uint8)
	case dtype.Uint16:
		return testutil.Sequence[uint16](n, 1000), new([]uint16)
	case dtype.Uint32:
		return testutil.Sequence[uint32](n, 1<<20), new([]uint32)
	case dtype.Uint64:
		return testutil.Sequence[uint64](n, 1<<40), new([]uint64)
	case dtype.Float32:
		return testutil.Sequence[float32](n, 0.5), new([]float32)
	case dtype.Float64:
		return testutil.Sequence[float64](n, -2.25), new([]float64)
	case dtype.Bool:
		out := make([]bool, n)
		for i := range out {
			out[i] = i%3 == 0
		}
		return out, new([]bool)
	case dtype.Dim:
		out := make([]grid.Dimensions, n)
		for i := range out {
			out[i] = grid.New(uint64(i), uint64(2*i), uint64(3*i))
		}
		return out, new([]grid.Dimensions)
	}
	panic("unknown type " + t.String())
}

func deref(p any) any {
	switch v := p.(type) {
	case *[]int8:
		return *v
	case *[]int16:
		return *v
	case *[]int32:
		return *v
	case *[]int64:
		return *v
	case *[]uint8:
		return *v
	case *[]uint16:
		return *v
	case *[]uint32:
		return *v
	case *[]uint64:
		return *v
	case *[]float32:
		return *v
	case *[]float64:
		return *v
	case *[]bool:
		return *v
	case *[]grid.Dimensions:
		return *v
	}
	panic(fmt.Sprintf("unexpected %T", p))
}

func TestRoundTrip(t *testing.T) {
	shapes := map[int]grid.Dimensions{
		1: grid.New(6, 1, 1),
		2: grid.New(3, 2, 1),
		3: grid.New(2, 3, 4),
	}
	for _, typ := range dtype.Types() {
		for rank := 1; rank <= 3; rank++ {
			t.Run(fmt.Sprintf("%s/rank%d", typ, rank), func(t *testing.T) {
				ctx := context.Background()
				store := blobstore.NewMemoryStore()
				size := shapes[rank]
				data, dst := sample(typ, int(size.Size()))

				dc := newCollector(t, store)
				require.NoError(t, dc.Open(ctx, "sim", FileCreationAttr{Access: AccessCreate, Compression: rank != 2}))
				require.NoError(t, dc.Write(ctx, 4, NewWrite(typ, rank, size, "v", data)))
				require.NoError(t, dc.Close())

				open(t, dc, AccessRead)
				got, err := dc.Read(ctx, 4, typ, "v", dst)
				require.NoError(t, err)
				assert.Equal(t, size, got)
				assert.Equal(t, data, deref(dst))
			})
		}
	}
}

func TestWrite_EmptySelection(t *testing.T) {
	ctx := context.Background()
	dc := newCollector(t, blobstore.NewMemoryStore())
	open(t, dc, AccessCreate)

	req := NewWrite(dtype.Float64, 2, grid.New(0, 5, 1), "empty", []float64{}).
		Global(grid.New(4, 5, 1), grid.Zero())
	require.NoError(t, dc.Write(ctx, 0, req))
	require.NoError(t, dc.Close())

	open(t, dc, AccessRead)
	size, err := dc.Read(ctx, 0, dtype.Float64, "empty", nil)
	require.NoError(t, err)
	assert.Equal(t, grid.New(4, 5, 1), size)

	var got []float64
	_, err = dc.Read(ctx, 0, dtype.Float64, "empty", &got)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 20), got)
}

func TestWrite_TwoRanks(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	size := grid.New(2, 1, 1)

	err := testutil.RunRanks(ctx, 2, func(ctx context.Context, c comm.Comm) error {
		dc, err := New(store, size, c.Rank(), WithComm(c))
		if err != nil {
			return err
		}
		defer dc.Close()
		if err := dc.Open(ctx, "run/sim", FileCreationAttr{Access: AccessCreate, Compression: true}); err != nil {
			return err
		}
		local := testutil.Sequence[int32](4, int32(4*c.Rank()))
		return dc.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(4, 1, 1), "ids", local))
	})
	require.NoError(t, err)

	dc := newCollector(t, store)
	require.NoError(t, dc.Open(ctx, "run/sim", FileCreationAttr{Access: AccessRead}))
	var got []int32
	n, err := dc.Read(ctx, 0, dtype.Int32, "ids", &got)
	require.NoError(t, err)
	assert.Equal(t, grid.New(8, 1, 1), n)
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7}, got)
}

func TestWrite_Grid3D(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	size := grid.New(2, 2, 2)
	local := grid.New(2, 1, 3)

	err := testutil.RunRanks(ctx, int(size.Size()), func(ctx context.Context, c comm.Comm) error {
		dc, err := New(store, size, c.Rank(), WithComm(c), WithCompressor(CompressLZ4))
		if err != nil {
			return err
		}
		defer dc.Close()
		if err := dc.Open(ctx, "sim", FileCreationAttr{Access: AccessCreate, Compression: true}); err != nil {
			return err
		}
		data := make([]uint16, local.Size())
		for i := range data {
			data[i] = uint16(c.Rank())
		}
		return dc.Write(ctx, 9, NewWrite(dtype.Uint16, 3, local, "owner", data))
	})
	require.NoError(t, err)

	dc := newCollector(t, store)
	open(t, dc, AccessRead)
	var got []uint16
	global, err := dc.Read(ctx, 9, dtype.Uint16, "owner", &got)
	require.NoError(t, err)
	assert.Equal(t, grid.New(4, 2, 6), global)

	// Every element is owned by the rank whose block contains it.
	for z := uint64(0); z < global.Z(); z++ {
		for y := uint64(0); y < global.Y(); y++ {
			for x := uint64(0); x < global.X(); x++ {
				pos := grid.New(x, y, z).Div(local)
				want := uint16(grid.RankFromPosition(pos, size))
				assert.Equal(t, want, got[x+global.X()*(y+global.Y()*z)])
			}
		}
	}
}

func TestWrite_StridedBuffer(t *testing.T) {
	ctx := context.Background()
	dc := newCollector(t, blobstore.NewMemoryStore())
	open(t, dc, AccessWrite)

	// A 6x4 buffer with a ghost border of one cell; keep every second
	// interior column.
	buf := testutil.Sequence[float32](24, 0)
	req := NewWrite(dtype.Float32, 2, grid.New(2, 2, 1), "e", buf).
		Buffer(grid.New(6, 4, 1), grid.New(1, 1, 0)).
		Stride(grid.New(2, 1, 1))
	require.NoError(t, dc.Write(ctx, 2, req))

	got := make([]float32, 4)
	_, err := dc.Read(ctx, 2, dtype.Float32, "e", got)
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 9, 13, 15}, got)
}

func TestWrite_Global(t *testing.T) {
	ctx := context.Background()
	dc := newCollector(t, blobstore.NewMemoryStore())
	open(t, dc, AccessWrite)

	// Two blocks of one rank placed explicitly.
	left := NewWrite(dtype.Int64, 1, grid.New(2, 1, 1), "p", []int64{1, 2}).Global(grid.New(5, 1, 1), grid.Zero())
	right := NewWrite(dtype.Int64, 1, grid.New(2, 1, 1), "p", []int64{4, 5}).Global(grid.New(5, 1, 1), grid.New(3, 0, 0))
	require.NoError(t, dc.Write(ctx, 0, left))
	require.NoError(t, dc.Write(ctx, 0, right))

	var got []int64
	_, err := dc.Read(ctx, 0, dtype.Int64, "p", &got)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 0, 4, 5}, got)

	// Out of range offset.
	bad := NewWrite(dtype.Int64, 1, grid.New(2, 1, 1), "p", []int64{1, 2}).Global(grid.New(5, 1, 1), grid.New(4, 0, 0))
	assert.ErrorIs(t, dc.Write(ctx, 0, bad), ErrInvalidArgument)
}

func TestWrite_Rewrite(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	dc := newCollector(t, store)

	open(t, dc, AccessCreate)
	require.NoError(t, dc.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(8, 1, 1), "d", make([]int32, 8))))
	require.NoError(t, dc.Close())

	open(t, dc, AccessWrite)
	part := NewWrite(dtype.Int32, 1, grid.New(4, 1, 1), "d", []int32{1, 2, 3, 4}).Global(grid.New(8, 1, 1), grid.Zero())
	require.NoError(t, dc.Write(ctx, 0, part))

	var got []int32
	_, err := dc.Read(ctx, 0, dtype.Int32, "d", &got)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4, 0, 0, 0, 0}, got)
	require.NoError(t, dc.Close())

	open(t, dc, AccessRead)
	_, err = dc.Read(ctx, 0, dtype.Int32, "d", &got)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4, 0, 0, 0, 0}, got)
}

func TestWrite_Invalid(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	dc := newCollector(t, store)
	open(t, dc, AccessWrite)

	size := grid.New(2, 1, 1)
	tests := []struct {
		name string
		req  WriteRequest
	}{
		{"empty name", NewWrite(dtype.Int32, 1, size, "", []int32{1, 2})},
		{"nil data", NewWrite(dtype.Int32, 1, size, "x", nil)},
		{"rank 0", NewWrite(dtype.Int32, 0, size, "x", []int32{1, 2})},
		{"rank 4", NewWrite(dtype.Int32, 4, size, "x", []int32{1, 2})},
		{"type", NewWrite(dtype.Int32, 1, size, "x", []float32{1, 2})},
		{"short data", NewWrite(dtype.Int32, 1, size, "x", []int32{1})},
		{"selection outside buffer", NewWrite(dtype.Int32, 1, size, "x", []int32{1, 2}).Buffer(size, grid.New(1, 0, 0))},
		{"zero stride", NewWrite(dtype.Int32, 1, size, "x", []int32{1, 2}).Stride(grid.Zero())},
		{"buffer size wraps", NewWrite(dtype.Int32, 2, grid.One(), "x", []int32{1}).Buffer(grid.New(1<<32, 1<<32, 1), grid.New(5, 0, 0))},
		{"stride wraps", NewWrite(dtype.Int32, 1, size, "x", []int32{1, 2}).Stride(grid.New(1<<63, 1, 1)).Buffer(size, grid.New(1, 0, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, dc.Write(ctx, 0, tt.req), ErrInvalidArgument)
		})
	}
	assert.Zero(t, store.Len(), "validation must not touch the backend")
}

func TestWrite_ShapeMismatch(t *testing.T) {
	ctx := context.Background()
	dc := newCollector(t, blobstore.NewMemoryStore())
	open(t, dc, AccessCreate)

	require.NoError(t, dc.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(2, 1, 1), "x", []int32{1, 2})))

	err := dc.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(3, 1, 1), "x", []int32{1, 2, 3}))
	assert.ErrorIs(t, err, ErrBackendFailure)
	err = dc.Write(ctx, 0, NewWrite(dtype.Int64, 1, grid.New(2, 1, 1), "x", []int64{1, 2}))
	assert.ErrorIs(t, err, ErrBackendFailure)
}

// failingStore fails every Put of a blob whose name contains match.
type failingStore struct {
	blobstore.BlobStore
	match string
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Put(ctx context.Context, name string, data []byte) error {
	if strings.Contains(name, s.match) {
		return errDiskFull
	}
	return s.BlobStore.Put(ctx, name, data)
}

func TestWrite_BackendFailure(t *testing.T) {
	ctx := context.Background()

	for _, match := range []string{"/slabs/", "/.array", "/data/0/.group"} {
		t.Run(match, func(t *testing.T) {
			store := &failingStore{BlobStore: blobstore.NewMemoryStore(), match: match}
			dc := newCollector(t, store)
			open(t, dc, AccessCreate)

			err := dc.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(2, 1, 1), "x", []int32{1, 2}))
			assert.ErrorIs(t, err, ErrBackendFailure)
			assert.ErrorIs(t, err, errDiskFull)
			assert.Zero(t, openHandles(t, dc, 0))
		})
	}

	// A failing header write surfaces when the container is first used.
	store := &failingStore{BlobStore: blobstore.NewMemoryStore(), match: "/header/.attrs/"}
	dc := newCollector(t, store)
	open(t, dc, AccessCreate)
	err := dc.WriteGlobalAttribute(ctx, 0, dtype.Int32, "a", int32(1))
	assert.ErrorIs(t, err, ErrBackendFailure)
}
