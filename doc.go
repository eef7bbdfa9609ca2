// Package splash collects the iteration-indexed data of a parallel
// simulation.
//
// Every rank of a fixed 3-D process grid owns one block of each global
// array. A Collector per rank routes that block into the shared container
// of an iteration, named "<base>_<id>.h5" on a blob store.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./out")
//	dc, _ := splash.New(store, grid.New(2, 1, 1), rank, splash.WithComm(comms[rank]))
//
//	_ = dc.Open(ctx, "sim", splash.FileCreationAttr{Access: splash.AccessCreate, Compression: true})
//	req := splash.NewWrite(dtype.Float64, 1, grid.New(4, 1, 1), "rho", local)
//	_ = dc.Write(ctx, 0, req) // global array (8,1,1), this rank at offset 4*rank
//	_ = dc.Close()
//
//	_ = dc.Open(ctx, "sim", splash.FileCreationAttr{Access: splash.AccessRead})
//	var all []float64
//	size, _ := dc.Read(ctx, 0, dtype.Float64, "rho", &all)
//
// # Lifecycle
//
// A Collector is closed, creating, writing or reading. Open moves it out of
// the closed state according to the access type, Close moves it back.
// Reads are permitted while writing or reading, writes while creating or
// writing; everything else fails with ErrInvalidState.
//
// # Container layout
//
// Each container holds a header group (attributes maxID, compression and
// mpi_size), a custom group for global attributes and a data group with one
// group per iteration. Datasets live in data/<id>.
//
// # Storage
//
// Containers are stored on a blobstore.BlobStore: in memory, on the local
// file system, on S3 (blobstore/s3) or on MinIO (blobstore/minio).
package splash
