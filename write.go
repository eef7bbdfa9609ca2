package splash

import (
	"context"
	"time"

	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
)

// WriteRequest describes a local buffer and the part of it to write.
//
// Build one with NewWrite and refine it with Buffer, Stride and Global:
//
//	req := splash.NewWrite(dtype.Float32, 3, grid.New(64, 64, 32), "fields/E", e).
//		Buffer(grid.New(68, 68, 36), grid.New(2, 2, 2))
//	err := dc.Write(ctx, step, req)
//
// The Collector does not retain the request or its data.
type WriteRequest struct {
	typ  dtype.Type
	rank int
	name string
	data any

	buffer grid.Dimensions
	offset grid.Dimensions
	stride grid.Dimensions
	size   grid.Dimensions

	global       bool
	globalSize   grid.Dimensions
	globalOffset grid.Dimensions
}

// NewWrite describes a dense local buffer of the given size holding data,
// a slice of the Go type matching t. The whole buffer is written.
func NewWrite(t dtype.Type, rank int, size grid.Dimensions, name string, data any) WriteRequest {
	return WriteRequest{
		typ:    t,
		rank:   rank,
		name:   name,
		data:   data,
		buffer: size,
		stride: grid.One(),
		size:   size,
	}
}

// Buffer declares that data has shape buffer and the selection starts at
// offset inside it.
func (r WriteRequest) Buffer(buffer, offset grid.Dimensions) WriteRequest {
	r.buffer = buffer
	r.offset = offset
	return r
}

// Stride sets the step between selected elements of the buffer.
func (r WriteRequest) Stride(stride grid.Dimensions) WriteRequest {
	r.stride = stride
	return r
}

// Global sets the global array size and this rank's offset in it explicitly.
// Without it both are derived from the selection size and the topology.
func (r WriteRequest) Global(size, offset grid.Dimensions) WriteRequest {
	r.global = true
	r.globalSize = size
	r.globalOffset = offset
	return r
}

// Name returns the dataset name.
func (r WriteRequest) Name() string { return r.name }

// Size returns the selection size.
func (r WriteRequest) Size() grid.Dimensions { return r.size }

func (r WriteRequest) selection() container.Selection {
	return container.Selection{
		Buffer: r.buffer,
		Offset: r.offset,
		Stride: r.stride,
		Count:  r.size,
	}
}

func (r WriteRequest) validate(op string) error {
	if r.name == "" {
		return invalidArgument(op, "empty name")
	}
	if r.data == nil {
		return invalidArgument(op, "nil data for %s", r.name)
	}
	if r.rank < 1 || r.rank > 3 {
		return invalidArgument(op, "rank %d of %s outside [1,3]", r.rank, r.name)
	}
	if err := dtype.Check(r.typ, r.data); err != nil {
		return newError(op, ErrInvalidArgument, r.name, err)
	}
	n, err := dtype.Len(r.data)
	if err != nil {
		return newError(op, ErrInvalidArgument, r.name, err)
	}
	if err := r.selection().Validate(n); err != nil {
		return newError(op, ErrInvalidArgument, r.name, err)
	}
	return nil
}

// Write stores the selection of req in dataset req.Name() of iteration id.
//
// The dataset is created with the global size when absent, even when the
// selection is empty, so every rank of a run agrees on its shape. Data is
// written only for non-empty selections.
func (dc *Collector) Write(ctx context.Context, id uint32, req WriteRequest) (err error) {
	const op = "write"
	start := time.Now()
	defer func() {
		dc.metrics.RecordWrite(req.size.Size(), time.Since(start), err)
		dc.logger.LogWrite(ctx, id, req.name, req.size.Size(), err)
	}()

	if err := req.validate(op); err != nil {
		return err
	}
	if err := dc.checkWrite(op); err != nil {
		return err
	}

	globalSize, globalOffset := req.globalSize, req.globalOffset
	if !req.global {
		globalSize = dc.run.topology.Extent(req.size)
		globalOffset = dc.run.topology.Offset(req.size)
	}

	c, err := dc.container(ctx, op, id)
	if err != nil {
		return err
	}
	g, err := c.OpenOrCreateGroup(ctx, dataGroup(id))
	if err != nil {
		return newError(op, ErrBackendFailure, dataGroup(id), err)
	}
	defer g.Close()

	a, err := g.CreateArray(ctx, req.name, req.typ, req.rank, globalSize,
		container.ArrayOptions{Compress: dc.run.compression})
	if err != nil {
		return newError(op, ErrBackendFailure, req.name, err)
	}
	defer a.Close()

	sel := req.selection()
	if sel.Empty() {
		return nil
	}
	if err := a.WriteSlab(ctx, sel, globalOffset, req.data); err != nil {
		return translateError(op, req.name, err)
	}
	return nil
}
