package splash

import (
	"context"
	"time"

	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
)

// openDataset opens dataset name of iteration id and checks its type. The
// caller closes both handles.
func (dc *Collector) openDataset(ctx context.Context, op string, id uint32, t dtype.Type, name string) (*container.Group, *container.Array, error) {
	if name == "" {
		return nil, nil, invalidArgument(op, "empty name")
	}
	if err := dc.checkRead(op); err != nil {
		return nil, nil, err
	}
	c, err := dc.container(ctx, op, id)
	if err != nil {
		return nil, nil, err
	}
	g, err := c.OpenGroup(ctx, dataGroup(id))
	if err != nil {
		return nil, nil, translateError(op, dataGroup(id), err)
	}
	a, err := g.OpenArray(ctx, name)
	if err != nil {
		_ = g.Close()
		return nil, nil, translateError(op, name, err)
	}
	if a.Type() != t {
		_ = a.Close()
		_ = g.Close()
		return nil, nil, invalidArgument(op, "%s holds %s, not %s", name, a.Type(), t)
	}
	return g, a, nil
}

// Read reads the whole dataset name of iteration id into dst and returns
// its size. dst is a slice with room for every element or a pointer to a
// slice, which is resized. With a nil dst only the size is returned.
func (dc *Collector) Read(ctx context.Context, id uint32, t dtype.Type, name string, dst any) (size grid.Dimensions, err error) {
	const op = "read"
	start := time.Now()
	defer func() {
		dc.metrics.RecordRead(time.Since(start), err)
		dc.logger.LogRead(ctx, id, name, err)
	}()

	g, a, err := dc.openDataset(ctx, op, id, t, name)
	if err != nil {
		return grid.Dimensions{}, err
	}
	defer g.Close()
	defer a.Close()

	if dst == nil {
		return a.Dims(), nil
	}
	if err := a.Read(ctx, dst); err != nil {
		return grid.Dimensions{}, translateError(op, name, err)
	}
	return a.Dims(), nil
}

// ReadInto reads the whole dataset name of iteration id into the buffer
// dst of shape dstBuffer, starting at dstOffset. Other elements of dst are
// left untouched. It returns the dataset size.
func (dc *Collector) ReadInto(ctx context.Context, id uint32, t dtype.Type, name string, dstBuffer, dstOffset grid.Dimensions, dst any) (size grid.Dimensions, err error) {
	const op = "readInto"
	start := time.Now()
	defer func() {
		dc.metrics.RecordRead(time.Since(start), err)
		dc.logger.LogRead(ctx, id, name, err)
	}()

	if dst == nil {
		return grid.Dimensions{}, invalidArgument(op, "nil destination for %s", name)
	}
	g, a, err := dc.openDataset(ctx, op, id, t, name)
	if err != nil {
		return grid.Dimensions{}, err
	}
	defer g.Close()
	defer a.Close()

	sel := container.Selection{
		Buffer: dstBuffer,
		Offset: dstOffset,
		Stride: grid.One(),
		Count:  a.Dims(),
	}
	if err := a.ReadInto(ctx, grid.Zero(), sel, dst); err != nil {
		return grid.Dimensions{}, translateError(op, name, err)
	}
	return a.Dims(), nil
}

// ReadSelection reads the box of the given size at offset of dataset name
// of iteration id into dst. A rank reads back its own block with
// offset = local × MPIPosition() and size = local.
func (dc *Collector) ReadSelection(ctx context.Context, id uint32, t dtype.Type, name string, offset, size grid.Dimensions, dst any) (err error) {
	const op = "readSelection"
	start := time.Now()
	defer func() {
		dc.metrics.RecordRead(time.Since(start), err)
		dc.logger.LogRead(ctx, id, name, err)
	}()

	if dst == nil {
		return invalidArgument(op, "nil destination for %s", name)
	}
	g, a, err := dc.openDataset(ctx, op, id, t, name)
	if err != nil {
		return err
	}
	defer g.Close()
	defer a.Close()

	if err := a.ReadSelection(ctx, offset, size, dst); err != nil {
		return translateError(op, name, err)
	}
	return nil
}
