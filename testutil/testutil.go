package testutil

import (
	"context"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/splash/comm"
)

// RNG is a seeded, thread-safe random source.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Read fills p with random bytes. It never fails.
func (r *RNG) Read(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.rand.Read(p)
}

// FillFloat32 fills dst with values in [0, 1).
func (r *RNG) FillFloat32(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillFloat64 fills dst with values in [0, 1).
func (r *RNG) FillFloat64(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// FillInt32 fills dst with arbitrary int32 values.
func (r *RNG) FillInt32(dst []int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = int32(r.rand.Uint32())
	}
}

// Number is any element type a test buffer may hold.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Sequence returns n values start, start+1, ...
func Sequence[T Number](n int, start T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = start + T(i)
	}
	return out
}

// RunRanks runs fn once per rank of an in-process group of size n and waits
// for all of them. The context handed to fn is cancelled when any rank fails.
func RunRanks(ctx context.Context, n int, fn func(ctx context.Context, c comm.Comm) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range comm.NewGroup(n) {
		g.Go(func() error { return fn(ctx, c) })
	}
	return g.Wait()
}
