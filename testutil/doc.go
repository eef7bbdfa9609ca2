// Package testutil provides helpers for tests and benchmarks.
//
// # Deterministic Data
//
//	rng := testutil.NewRNG(seed)
//	buf := make([]float32, 64)
//	rng.FillFloat32(buf)
//
// # Multi-Rank Runs
//
// RunRanks starts one goroutine per rank, each with its own communicator
// from comm.NewGroup, and returns the first error:
//
//	err := testutil.RunRanks(ctx, 2, func(ctx context.Context, c comm.Comm) error {
//	    ...
//	})
package testutil
