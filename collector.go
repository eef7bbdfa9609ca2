package splash

import (
	"context"
	"strconv"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/comm"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
	"github.com/hupe1980/splash/handles"
)

// Group and attribute names of the container layout.
const (
	GroupHeader = "header"
	GroupCustom = "custom"
	GroupData   = "data"

	AttrMaxID       = "maxID"
	AttrCompression = "compression"
	AttrMPISize     = "mpi_size"
)

// FileStatus is the lifecycle state of a Collector.
type FileStatus uint8

const (
	// StatusClosed is the initial and final state.
	StatusClosed FileStatus = iota
	// StatusCreating follows Open with AccessCreate.
	StatusCreating
	// StatusWriting follows Open with AccessWrite.
	StatusWriting
	// StatusReading follows Open with AccessRead or AccessReadMerged.
	StatusReading
)

func (s FileStatus) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusCreating:
		return "creating"
	case StatusWriting:
		return "writing"
	case StatusReading:
		return "reading"
	default:
		return "unknown"
	}
}

// AccessType selects how Open accesses the containers of a run.
type AccessType uint8

const (
	// AccessRead opens existing containers read-only.
	AccessRead AccessType = iota
	// AccessWrite opens containers read-write, creating missing ones.
	AccessWrite
	// AccessCreate truncates each container on first use.
	AccessCreate
	// AccessReadMerged reads a run as one merged dataset. Containers hold
	// the global arrays already, so it behaves like AccessRead.
	AccessReadMerged
)

func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessCreate:
		return "create"
	case AccessReadMerged:
		return "read-merged"
	default:
		return "unknown"
	}
}

// FileCreationAttr configures Open.
type FileCreationAttr struct {
	// Access selects the access mode.
	Access AccessType
	// Compression enables compression of datasets created after Open.
	// Ignored for read access.
	Compression bool
}

// runOptions is the run-scoped state shared with the container callbacks.
type runOptions struct {
	compression bool
	topology    grid.Topology
	maxID       int64
}

// Collector writes and reads the iteration-indexed datasets of one rank of
// a process grid.
//
// A Collector is not safe for concurrent use. Ranks of one run use one
// Collector each and share the blob store.
type Collector struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector

	run     runOptions
	status  FileStatus
	handles *handles.Cache[*runOptions]
}

// New returns a closed Collector for rank of a process grid of the given
// size. Grids with more than one cell need a communicator (WithComm) whose
// rank and size match.
func New(store blobstore.BlobStore, size grid.Dimensions, rank int, optFns ...Option) (*Collector, error) {
	const op = "new"
	if store == nil {
		return nil, invalidArgument(op, "nil store")
	}
	topo, err := grid.NewTopology(size, rank)
	if err != nil {
		return nil, newError(op, ErrInvalidArgument, "", err)
	}

	o := applyOptions(optFns)
	if o.comm == nil {
		if size.Size() > 1 {
			return nil, invalidArgument(op, "grid %s needs a communicator", size)
		}
		o.comm = comm.Self()
	}
	if uint64(o.comm.Size()) != size.Size() || o.comm.Rank() != rank {
		return nil, invalidArgument(op, "communicator rank %d of %d does not match %s",
			o.comm.Rank(), o.comm.Size(), topo)
	}

	dc := &Collector{
		opts:    o,
		logger:  o.logger.WithRank(rank),
		metrics: o.metricsCollector,
		run:     runOptions{topology: topo, maxID: -1},
	}
	dc.handles = handles.New[*runOptions](store,
		handles.WithLogger(dc.logger.Logger),
		handles.WithMaxHandles(o.maxOpen),
		handles.WithContainerOptions(o.containerOptions...),
	)
	dc.handles.RegisterOnCreate(createContainer, &dc.run)
	dc.handles.RegisterOnOpen(openContainer, &dc.run)
	return dc, nil
}

// Open starts access to the containers named "<base>_<id>.<ext>".
// It fails with ErrInvalidState unless the Collector is closed.
func (dc *Collector) Open(ctx context.Context, base string, attr FileCreationAttr) (err error) {
	const op = "open"
	defer func() {
		dc.metrics.RecordOpen(attr.Access, err)
		dc.logger.LogOpen(ctx, base, attr.Access, err)
	}()

	if dc.status != StatusClosed {
		return newError(op, ErrInvalidState, "status "+dc.status.String(), nil)
	}
	if base == "" {
		return invalidArgument(op, "empty base name")
	}

	var (
		mode   handles.Mode
		status FileStatus
	)
	switch attr.Access {
	case AccessRead, AccessReadMerged:
		mode, status = handles.ModeRead, StatusReading
	case AccessWrite:
		mode, status = handles.ModeWrite, StatusWriting
	case AccessCreate:
		mode, status = handles.ModeCreate, StatusCreating
	default:
		return invalidArgument(op, "access type %d", attr.Access)
	}

	params := handles.AccessParams{
		Comm:               dc.opts.comm,
		RawCacheBytes:      dc.opts.rawCacheBytes,
		Compression:        dc.opts.compressor,
		Extension:          dc.opts.extension,
		IOLimitBytesPerSec: dc.opts.ioLimit,
	}
	if err := dc.handles.Open(grid.One(), base, params, mode); err != nil {
		return translateError(op, base, err)
	}
	if status != StatusReading {
		dc.run.compression = attr.Compression
	}
	dc.status = status
	return nil
}

// Close releases every open container. Closing a closed Collector is a
// no-op. The Collector is closed afterwards even when an error is returned.
func (dc *Collector) Close() error {
	if dc.status == StatusClosed {
		return nil
	}
	err := dc.handles.Close()
	dc.status = StatusClosed
	if err != nil {
		err = newError("close", ErrBackendFailure, "", err)
	}
	dc.logger.LogClose(context.Background(), err)
	return err
}

// Status returns the lifecycle state.
func (dc *Collector) Status() FileStatus { return dc.status }

// MaxID returns the largest iteration id opened so far, or -1.
func (dc *Collector) MaxID() int64 { return dc.run.maxID }

// MPISize returns the process grid size.
func (dc *Collector) MPISize() grid.Dimensions { return dc.run.topology.Size() }

// MPIPosition returns this rank's grid position.
func (dc *Collector) MPIPosition() grid.Dimensions { return dc.run.topology.Position() }

// Rank returns this rank.
func (dc *Collector) Rank() int { return dc.run.topology.Rank() }

// Topology returns the process topology.
func (dc *Collector) Topology() grid.Topology { return dc.run.topology }

func (dc *Collector) checkRead(op string) error {
	if dc.status == StatusWriting || dc.status == StatusReading {
		return nil
	}
	return newError(op, ErrInvalidState, "status "+dc.status.String(), nil)
}

func (dc *Collector) checkWrite(op string) error {
	if dc.status == StatusCreating || dc.status == StatusWriting {
		return nil
	}
	return newError(op, ErrInvalidState, "status "+dc.status.String(), nil)
}

func (dc *Collector) container(ctx context.Context, op string, id uint32) (*container.Container, error) {
	c, err := dc.handles.Get(ctx, id)
	if err != nil {
		return nil, translateError(op, "iteration "+strconv.FormatUint(uint64(id), 10), err)
	}
	return c, nil
}

// dataGroup is the group holding the datasets of iteration id.
func dataGroup(id uint32) string {
	return GroupData + "/" + strconv.FormatUint(uint64(id), 10)
}

func createContainer(ctx context.Context, c *container.Container, id uint32, run *runOptions) error {
	for _, name := range []string{GroupCustom, GroupData} {
		g, err := c.OpenOrCreateGroup(ctx, name)
		if err != nil {
			return err
		}
		if err := g.Close(); err != nil {
			return err
		}
	}
	return writeHeader(ctx, c, id, run)
}

func writeHeader(ctx context.Context, c *container.Container, id uint32, run *runOptions) error {
	g, err := c.OpenOrCreateGroup(ctx, GroupHeader)
	if err != nil {
		return err
	}
	defer g.Close()

	if err := g.SetAttribute(ctx, AttrMaxID, dtype.Int32, int32(id)); err != nil {
		return err
	}
	if err := g.SetAttribute(ctx, AttrCompression, dtype.Bool, run.compression); err != nil {
		return err
	}
	return g.SetAttribute(ctx, AttrMPISize, dtype.Dim, run.topology.Size())
}

func openContainer(_ context.Context, _ *container.Container, id uint32, run *runOptions) error {
	run.maxID = max(run.maxID, int64(id))
	return nil
}
