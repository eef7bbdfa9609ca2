// Package comm provides the parallel access mode used by the handle cache:
// every cooperating process knows its rank and the group size, and can wait
// for all peers at a barrier.
//
// Self returns the communicator of a non-parallel run. NewGroup returns
// in-process peers for runs where each rank is a goroutine, which is also how
// multi-rank behavior is tested.
package comm

import (
	"context"
	"errors"
	"sync"
)

// ErrGroupBroken is returned by Barrier once a peer has abandoned the group.
var ErrGroupBroken = errors.New("comm: barrier broken by a cancelled peer")

// Comm is the communicator of one rank.
type Comm interface {
	// Rank returns this process's rank in [0, Size()).
	Rank() int
	// Size returns the number of cooperating processes.
	Size() int
	// Barrier blocks until every rank of the group has called Barrier.
	Barrier(ctx context.Context) error
}

type self struct{}

// Self returns the communicator of a single-process run.
func Self() Comm { return self{} }

func (self) Rank() int { return 0 }

func (self) Size() int { return 1 }

func (self) Barrier(ctx context.Context) error { return ctx.Err() }

// generation is one cycle of the barrier.
type generation struct {
	release chan struct{}
	broken  bool
}

// barrier is a reusable cyclic barrier shared by the members of a group.
type barrier struct {
	mu      sync.Mutex
	parties int
	waiting int
	gen     *generation
	broken  bool
}

func newBarrier(parties int) *barrier {
	return &barrier{parties: parties, gen: &generation{release: make(chan struct{})}}
}

func (b *barrier) await(ctx context.Context) error {
	b.mu.Lock()
	if b.broken {
		b.mu.Unlock()
		return ErrGroupBroken
	}
	b.waiting++
	gen := b.gen
	if b.waiting == b.parties {
		// Last arrival opens the gate and arms the next generation.
		close(gen.release)
		b.gen = &generation{release: make(chan struct{})}
		b.waiting = 0
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-gen.release:
		b.mu.Lock()
		defer b.mu.Unlock()
		if gen.broken {
			return ErrGroupBroken
		}
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		defer b.mu.Unlock()
		select {
		case <-gen.release:
			if !gen.broken {
				return nil
			}
		default:
			gen.broken = true
			close(gen.release)
		}
		b.broken = true
		return ctx.Err()
	}
}

type member struct {
	rank int
	size int
	b    *barrier
}

// NewGroup returns n in-process communicators, one per rank, that share a
// barrier. n must be at least 1.
func NewGroup(n int) []Comm {
	if n < 1 {
		n = 1
	}
	b := newBarrier(n)
	out := make([]Comm, n)
	for i := range out {
		out[i] = &member{rank: i, size: n, b: b}
	}
	return out
}

func (m *member) Rank() int { return m.rank }

func (m *member) Size() int { return m.size }

func (m *member) Barrier(ctx context.Context) error {
	return m.b.await(ctx)
}
