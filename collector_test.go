package splash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
)

func newCollector(t *testing.T, store blobstore.BlobStore, opts ...Option) *Collector {
	t.Helper()
	dc, err := New(store, grid.One(), 0, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dc.Close() })
	return dc
}

func open(t *testing.T, dc *Collector, access AccessType) {
	t.Helper()
	require.NoError(t, dc.Open(context.Background(), "sim", FileCreationAttr{Access: access}))
}

// openHandles returns the number of groups and arrays left open in the
// container of iteration id.
func openHandles(t *testing.T, dc *Collector, id uint32) int {
	t.Helper()
	c, err := dc.container(context.Background(), "test", id)
	require.NoError(t, err)
	return c.OpenHandles()
}

func TestNew(t *testing.T) {
	store := blobstore.NewMemoryStore()

	tests := []struct {
		name string
		size grid.Dimensions
		rank int
		opts []Option
	}{
		{"zero grid", grid.New(0, 1, 1), 0, nil},
		{"rank outside", grid.New(2, 1, 1), 2, []Option{WithComm(comm.NewGroup(2)[0])}},
		{"missing comm", grid.New(2, 1, 1), 0, nil},
		{"comm size", grid.New(2, 1, 1), 0, []Option{WithComm(comm.NewGroup(3)[0])}},
		{"comm rank", grid.New(2, 1, 1), 0, []Option{WithComm(comm.NewGroup(2)[1])}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(store, tt.size, tt.rank, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := New(nil, grid.One(), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	dc, err := New(store, grid.New(2, 3, 1), 5, WithComm(comm.NewGroup(6)[5]))
	require.NoError(t, err)
	assert.Equal(t, grid.New(2, 3, 1), dc.MPISize())
	assert.Equal(t, grid.New(1, 2, 0), dc.MPIPosition())
	assert.Equal(t, 5, dc.Rank())
	assert.Equal(t, int64(-1), dc.MaxID())
	assert.Equal(t, StatusClosed, dc.Status())
}

func TestOpenClose(t *testing.T) {
	ctx := context.Background()
	dc := newCollector(t, blobstore.NewMemoryStore())

	// Closing a closed collector is a no-op.
	require.NoError(t, dc.Close())

	assert.ErrorIs(t, dc.Open(ctx, "", FileCreationAttr{Access: AccessCreate}), ErrInvalidArgument)
	assert.ErrorIs(t, dc.Open(ctx, "sim", FileCreationAttr{Access: AccessType(42)}), ErrInvalidArgument)
	assert.Equal(t, StatusClosed, dc.Status())

	for access, status := range map[AccessType]FileStatus{
		AccessCreate:     StatusCreating,
		AccessWrite:      StatusWriting,
		AccessRead:       StatusReading,
		AccessReadMerged: StatusReading,
	} {
		open(t, dc, access)
		assert.Equal(t, status, dc.Status())

		err := dc.Open(ctx, "sim", FileCreationAttr{Access: access})
		assert.ErrorIs(t, err, ErrInvalidState)
		err = dc.Open(ctx, "", FileCreationAttr{Access: access})
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, status, dc.Status())

		require.NoError(t, dc.Close())
		require.NoError(t, dc.Close())
		assert.Equal(t, StatusClosed, dc.Status())
	}
}

// TestStateMatrix checks every read and write operation in every state.
func TestStateMatrix(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Iteration 0 with one dataset and attributes.
	seed := newCollector(t, store)
	open(t, seed, AccessCreate)
	require.NoError(t, seed.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(2, 1, 1), "d", []int32{1, 2})))
	require.NoError(t, seed.WriteGlobalAttribute(ctx, 0, dtype.Int32, "g", int32(1)))
	require.NoError(t, seed.WriteAttribute(ctx, 0, dtype.Int32, "d", "a", int32(1)))
	require.NoError(t, seed.Close())

	type call struct {
		op string
		fn func(dc *Collector) error
	}
	reads := []call{
		{"read", func(dc *Collector) error {
			_, err := dc.Read(ctx, 0, dtype.Int32, "d", nil)
			return err
		}},
		{"readInto", func(dc *Collector) error {
			_, err := dc.ReadInto(ctx, 0, dtype.Int32, "d", grid.New(2, 1, 1), grid.Zero(), make([]int32, 2))
			return err
		}},
		{"readSelection", func(dc *Collector) error {
			return dc.ReadSelection(ctx, 0, dtype.Int32, "d", grid.Zero(), grid.New(2, 1, 1), make([]int32, 2))
		}},
		{"readGlobalAttribute", func(dc *Collector) error {
			var v int32
			return dc.ReadGlobalAttribute(ctx, 0, "g", &v)
		}},
		{"readAttribute", func(dc *Collector) error {
			var v int32
			return dc.ReadAttribute(ctx, 0, "d", "a", &v)
		}},
	}
	// Ordered so that attributes find the dataset after a truncating create.
	writes := []call{
		{"write", func(dc *Collector) error {
			return dc.Write(ctx, 0, NewWrite(dtype.Int32, 1, grid.New(2, 1, 1), "d", []int32{1, 2}))
		}},
		{"writeGlobalAttribute", func(dc *Collector) error {
			return dc.WriteGlobalAttribute(ctx, 0, dtype.Int32, "g", int32(1))
		}},
		{"writeAttribute", func(dc *Collector) error {
			return dc.WriteAttribute(ctx, 0, dtype.Int32, "d", "a", int32(1))
		}},
	}

	states := []struct {
		access     *AccessType
		readAllow  bool
		writeAllow bool
	}{
		{nil, false, false},
		{ptr(AccessCreate), false, true},
		{ptr(AccessWrite), true, true},
		{ptr(AccessRead), true, false},
	}
	for _, st := range states {
		dc := newCollector(t, store)
		if st.access != nil {
			open(t, dc, *st.access)
		}
		name := dc.Status().String()

		for _, c := range reads {
			err := c.fn(dc)
			if st.readAllow {
				assert.NoError(t, err, "%s in %s", c.op, name)
			} else {
				assert.ErrorIs(t, err, ErrInvalidState, "%s in %s", c.op, name)
			}
		}
		for _, c := range writes {
			err := c.fn(dc)
			if st.writeAllow {
				assert.NoError(t, err, "%s in %s", c.op, name)
			} else {
				assert.ErrorIs(t, err, ErrInvalidState, "%s in %s", c.op, name)
				var e *Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, c.op, e.Op)
			}
		}
		require.NoError(t, dc.Close())
	}
}

func ptr[T any](v T) *T { return &v }

func TestHeader(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	dc := newCollector(t, store)
	require.NoError(t, dc.Open(ctx, "sim", FileCreationAttr{Access: AccessCreate, Compression: true}))
	require.NoError(t, dc.Write(ctx, 12, NewWrite(dtype.Uint8, 1, grid.New(1, 1, 1), "x", []uint8{1})))
	assert.Equal(t, int64(-1), dc.MaxID())
	require.NoError(t, dc.Close())

	// Raw layout written by the create callback.
	c, err := container.Open(ctx, store, "sim_12.h5", container.ModeReadOnly)
	require.NoError(t, err)
	defer c.Close()
	g, err := c.OpenGroup(ctx, GroupHeader)
	require.NoError(t, err)
	defer g.Close()

	var maxID int32
	require.NoError(t, g.Attribute(ctx, AttrMaxID, &maxID))
	assert.Equal(t, int32(12), maxID)
	var compression bool
	require.NoError(t, g.Attribute(ctx, AttrCompression, &compression))
	assert.True(t, compression)
	var mpiSize grid.Dimensions
	require.NoError(t, g.Attribute(ctx, AttrMPISize, &mpiSize))
	assert.Equal(t, grid.One(), mpiSize)

	for _, name := range []string{GroupCustom, GroupData, "data/12"} {
		grp, err := c.OpenGroup(ctx, name)
		require.NoError(t, err, name)
		require.NoError(t, grp.Close())
	}

	// Open callbacks track the largest id.
	open(t, dc, AccessRead)
	_, err = dc.Read(ctx, 12, dtype.Uint8, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), dc.MaxID())
	_, err = dc.Read(ctx, 3, dtype.Uint8, "x", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(12), dc.MaxID())
}

func TestUnimplemented(t *testing.T) {
	ctx := context.Background()
	dc := newCollector(t, blobstore.NewMemoryStore())
	open(t, dc, AccessCreate)

	_, err := dc.EntryIDs(ctx)
	assert.ErrorIs(t, err, ErrUnimplemented)
	_, err = dc.EntriesForID(ctx, 0)
	assert.ErrorIs(t, err, ErrUnimplemented)
	assert.ErrorIs(t, dc.Append(ctx, 0, dtype.Int32, 1, "a", []int32{1}), ErrUnimplemented)
	assert.ErrorIs(t, dc.AppendStrided(ctx, 0, dtype.Int32, 1, 0, 1, "a", []int32{1}), ErrUnimplemented)
	assert.ErrorIs(t, dc.Remove(ctx, 0), ErrUnimplemented)
	assert.ErrorIs(t, dc.RemoveEntry(ctx, 0, "a"), ErrUnimplemented)
	assert.ErrorIs(t, dc.CreateReference(ctx, 0, "a", dtype.Int32, 1, "b", grid.One(), grid.Zero(), grid.One()), ErrUnimplemented)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := &BasicMetricsCollector{}
	dc := newCollector(t, blobstore.NewMemoryStore(), WithMetricsCollector(m), WithLogger(NoopLogger()))

	open(t, dc, AccessWrite)
	require.NoError(t, dc.Write(ctx, 1, NewWrite(dtype.Float32, 1, grid.New(3, 1, 1), "v", []float32{1, 2, 3})))
	assert.Error(t, dc.Write(ctx, 1, NewWrite(dtype.Float32, 4, grid.New(3, 1, 1), "v", []float32{1, 2, 3})))
	_, err := dc.Read(ctx, 1, dtype.Float32, "v", nil)
	require.NoError(t, err)
	require.NoError(t, dc.WriteGlobalAttribute(ctx, 1, dtype.Float64, "dt", 0.5))
	var dt float64
	require.NoError(t, dc.ReadGlobalAttribute(ctx, 1, "dt", &dt))
	assert.Equal(t, 0.5, dt)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.OpenCount)
	assert.Equal(t, int64(2), stats.WriteCount)
	assert.Equal(t, int64(1), stats.WriteErrors)
	assert.Equal(t, int64(3), stats.WriteElements)
	assert.Equal(t, int64(1), stats.ReadCount)
	assert.Equal(t, int64(1), stats.AttrWrites)
	assert.Equal(t, int64(1), stats.AttrReads)
	assert.Equal(t, int64(0), stats.AttrErrors)
}
