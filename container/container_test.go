package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/codec"
	"github.com/hupe1980/splash/dtype"
)

func TestCreateOpen(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := Open(ctx, store, "run_0.h5", ModeReadOnly)
	require.ErrorIs(t, err, ErrNotFound)

	c, err := Create(ctx, store, "run_0.h5", WithCodec(codec.JSON{}))
	require.NoError(t, err)
	assert.Equal(t, "run_0.h5", c.Name())
	assert.Equal(t, ModeReadWrite, c.Mode())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	ok, err := Exists(ctx, store, "run_0.h5")
	require.NoError(t, err)
	assert.True(t, ok)

	c, err = Open(ctx, store, "run_0.h5", ModeReadOnly)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "json", c.Codec().Name())
	assert.Equal(t, "read-only", c.Mode().String())

	_, err = c.CreateGroup(ctx, "data")
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestCreateTruncates(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c, err := Create(ctx, store, "run_1.h5")
	require.NoError(t, err)
	g, err := c.CreateGroup(ctx, "custom")
	require.NoError(t, err)
	require.NoError(t, g.SetAttribute(ctx, "note", dtype.Int32, int32(7)))
	require.NoError(t, g.Close())
	require.NoError(t, c.Close())

	// A sibling with a common name prefix must survive.
	_, err = Create(ctx, store, "run_10.h5")
	require.NoError(t, err)

	c, err = Create(ctx, store, "run_1.h5")
	require.NoError(t, err)
	_, err = c.OpenGroup(ctx, "custom")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := Exists(ctx, store, "run_10.h5")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenOrCreate(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c, created, err := OpenOrCreate(ctx, store, "run_2.h5")
	require.NoError(t, err)
	assert.True(t, created)
	_, err = c.CreateGroup(ctx, "header")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, created, err = OpenOrCreate(ctx, store, "run_2.h5")
	require.NoError(t, err)
	assert.False(t, created)
	g, err := c.OpenGroup(ctx, "header")
	require.NoError(t, err)
	require.NoError(t, g.Close())
}

func TestOpenCorrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, store.Put(ctx, "bad.h5/.container", []byte("not json")))
	_, err := Open(ctx, store, "bad.h5", ModeReadOnly)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, store.Put(ctx, "other.h5/.container", []byte(`{"format":"hdf5","version":1,"codec":"json"}`)))
	_, err = Open(ctx, store, "other.h5", ModeReadOnly)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestGroups(t *testing.T) {
	ctx := context.Background()
	c, err := Create(ctx, blobstore.NewMemoryStore(), "g.h5")
	require.NoError(t, err)
	defer c.Close()

	g, err := c.CreateGroup(ctx, "data/7")
	require.NoError(t, err)
	assert.Equal(t, "data/7", g.Path())
	assert.Equal(t, 1, c.OpenHandles())

	parent, err := c.OpenGroup(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, 2, c.OpenHandles())

	again, err := c.OpenOrCreateGroup(ctx, "data/7")
	require.NoError(t, err)
	require.NoError(t, again.Close())
	require.NoError(t, again.Close())
	require.NoError(t, parent.Close())
	require.NoError(t, g.Close())
	assert.Zero(t, c.OpenHandles())

	_, err = g.OpenArray(ctx, "x")
	assert.ErrorIs(t, err, ErrClosed)

	for _, bad := range []string{"", "/abs", "a//b", ".attrs", "data/.group"} {
		_, err := c.CreateGroup(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestClosedContainer(t *testing.T) {
	ctx := context.Background()
	c, err := Create(ctx, blobstore.NewMemoryStore(), "c.h5")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.OpenGroup(ctx, "data")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	_, err := Create(ctx, store, "r.h5")
	require.NoError(t, err)

	require.NoError(t, Remove(ctx, store, "r.h5"))
	ok, err := Exists(ctx, store, "r.h5")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}
