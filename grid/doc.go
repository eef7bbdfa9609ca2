// Package grid provides the 3-D extents and process-grid addressing shared by
// every shape, offset and stride value in splash.
//
// A run is decomposed over a fixed Cartesian grid of cooperating processes.
// Each process owns exactly one grid cell; its linear rank maps to that cell
// in column-major order (x varies fastest):
//
//	topo, _ := grid.NewTopology(grid.New(2, 2, 1), rank)
//	offset := topo.Offset(localShape) // where this rank's block starts
//	extent := topo.Extent(localShape) // size of the global array
//
// A single-process run uses grid (1,1,1), which degenerates to offset (0,0,0)
// and extent equal to the local shape.
package grid
