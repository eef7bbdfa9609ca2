package handles

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/grid"
	"github.com/hupe1980/splash/testutil"
)

type counters struct {
	created atomic.Int32
	opened  atomic.Int32
}

func register(h *Cache[*counters], n *counters) {
	h.RegisterOnCreate(func(ctx context.Context, c *container.Container, id uint32, user *counters) error {
		user.created.Add(1)
		g, err := c.OpenOrCreateGroup(ctx, "header")
		if err != nil {
			return err
		}
		return g.Close()
	}, n)
	h.RegisterOnOpen(func(ctx context.Context, c *container.Container, id uint32, user *counters) error {
		user.opened.Add(1)
		return nil
	}, n)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "run/sim_0.h5", FullName("run/sim", 0, "h5"))
	assert.Equal(t, "sim_4294967295.zarr", FullName("sim", 4294967295, "zarr"))
}

func TestOpen_Errors(t *testing.T) {
	h := New[int](blobstore.NewMemoryStore())

	_, err := h.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotOpen)

	err = h.Open(grid.New(2, 1, 1), "sim", DefaultAccessParams(), ModeCreate)
	assert.ErrorIs(t, err, ErrUnsupportedSplit)
	assert.False(t, h.IsOpen())

	assert.Error(t, h.Open(grid.One(), "", DefaultAccessParams(), ModeCreate))

	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeCreate))
	assert.ErrorIs(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeCreate), ErrAlreadyOpen)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}

func TestModes(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	n := &counters{}

	h := New[*counters](store)
	register(h, n)

	// Read of a missing container fails.
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeRead))
	_, err := h.Get(ctx, 3)
	assert.ErrorIs(t, err, container.ErrNotFound)
	require.NoError(t, h.Close())

	// Write creates missing containers without truncation.
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeWrite))
	c, err := h.Get(ctx, 3)
	require.NoError(t, err)
	g, err := c.CreateGroup(ctx, "custom")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	same, err := h.Get(ctx, 3)
	require.NoError(t, err)
	assert.Same(t, c, same)
	require.NoError(t, h.Close())
	assert.Equal(t, int32(1), n.created.Load())

	// Write on an existing container runs the open callback.
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeWrite))
	c, err = h.Get(ctx, 3)
	require.NoError(t, err)
	g, err = c.OpenGroup(ctx, "custom")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, int32(1), n.opened.Load())

	// Create truncates.
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeCreate))
	c, err = h.Get(ctx, 3)
	require.NoError(t, err)
	_, err = c.OpenGroup(ctx, "custom")
	assert.ErrorIs(t, err, container.ErrNotFound)
	require.NoError(t, h.Close())
	assert.Equal(t, int32(2), n.created.Load())

	// Read opens read-only.
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeRead))
	c, err = h.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, container.ModeReadOnly, c.Mode())
	_, err = c.CreateGroup(ctx, "x")
	assert.ErrorIs(t, err, container.ErrReadOnly)
	require.NoError(t, h.Close())
	assert.Equal(t, int32(2), n.opened.Load())
}

func TestEviction(t *testing.T) {
	ctx := context.Background()
	n := &counters{}
	h := New[*counters](blobstore.NewMemoryStore(), WithMaxHandles(2))
	register(h, n)
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeCreate))
	defer h.Close()

	first, err := h.Get(ctx, 0)
	require.NoError(t, err)
	_, err = h.Get(ctx, 1)
	require.NoError(t, err)
	_, err = h.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())

	// The evicted container is closed.
	_, err = first.OpenGroup(ctx, "header")
	assert.ErrorIs(t, err, container.ErrClosed)

	// Reopening an evicted id does not truncate it again.
	again, err := h.Get(ctx, 0)
	require.NoError(t, err)
	g, err := again.OpenGroup(ctx, "header")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	assert.Equal(t, int32(3), n.created.Load())
	assert.Equal(t, int32(1), n.opened.Load())

	seen := h.Seen()
	assert.Equal(t, uint64(3), seen.GetCardinality())
	assert.True(t, seen.Contains(2))
}

func TestCallbackError(t *testing.T) {
	boom := errors.New("boom")
	h := New[string](blobstore.NewMemoryStore())
	h.RegisterOnCreate(func(ctx context.Context, c *container.Container, id uint32, user string) error {
		assert.Equal(t, "ctx", user)
		return boom
	}, "ctx")
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeWrite))
	defer h.Close()

	_, err := h.Get(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, h.Len())
}

func TestCollectiveCreate(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Leftovers from an earlier run must not survive.
	old, err := container.Create(ctx, store, "sim_0.h5")
	require.NoError(t, err)
	g, err := old.CreateGroup(ctx, "stale")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.NoError(t, old.Close())

	var created atomic.Int32
	err = testutil.RunRanks(ctx, 4, func(ctx context.Context, cm comm.Comm) error {
		h := New[*atomic.Int32](store)
		h.RegisterOnCreate(func(ctx context.Context, c *container.Container, id uint32, n *atomic.Int32) error {
			n.Add(1)
			return nil
		}, &created)

		params := DefaultAccessParams()
		params.Comm = cm
		if err := h.Open(grid.One(), "sim", params, ModeCreate); err != nil {
			return err
		}
		c, err := h.Get(ctx, 0)
		if err != nil {
			return err
		}
		grp, err := c.OpenOrCreateGroup(ctx, "data")
		if err != nil {
			return err
		}
		if err := grp.Close(); err != nil {
			return err
		}
		if _, err := c.OpenGroup(ctx, "stale"); !errors.Is(err, container.ErrNotFound) {
			return errors.New("stale group survived truncation")
		}
		return h.Close()
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), created.Load())
}

func TestCollectiveCreate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New[int](blobstore.NewMemoryStore())
	params := DefaultAccessParams()
	params.Comm = comm.NewGroup(2)[1]
	require.NoError(t, h.Open(grid.One(), "sim", params, ModeCreate))
	defer h.Close()

	_, err := h.Get(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadThroughRawCache(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())

	h := New[int](store)
	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeWrite))
	_, err := h.Get(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	params := DefaultAccessParams()
	params.RawCacheBytes = 0
	require.NoError(t, h.Open(grid.One(), "sim", params, ModeRead))
	c, err := h.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "sim_7.h5", c.Name())
	require.NoError(t, h.Close())

	require.NoError(t, h.Open(grid.One(), "sim", DefaultAccessParams(), ModeRead))
	_, err = h.Get(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, h.Close())
}
