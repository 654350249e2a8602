// Package rendererpool implements the generic bounded pool from spec.md
// §4.3: per-(pixel-ratio, mode) pools of expensive renderer instances,
// with strict acquire/release discipline and graceful teardown. Design
// Note 9 calls for "a simple semaphore-gated queue of renderer instances
// with min/max lazy construction" — this reimplements that idiom with
// generics instead of wrapping the teacher's jamesrr39/semaphore counting
// primitive, since the pool needs to carry live instances, not just a
// count.
package rendererpool

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Acquire once the pool has been closed.
var ErrClosed = errors.New("rendererpool: pool is closed")

// Pool is a bounded pool of T, lazily constructed up to max and kept warm
// down to min.
type Pool[T any] struct {
	mu        sync.Mutex
	instances chan T
	numLive   int
	min, max  int
	create    func(ctx context.Context) (T, error)
	destroy   func(T) error
	closed    bool
}

// New constructs a pool, eagerly creating min instances. If any of the
// initial min creations fails, already-created instances are destroyed
// and the error is returned (registration aborts per spec.md §7
// FatalConfig).
func New[T any](ctx context.Context, min, max int, create func(ctx context.Context) (T, error), destroy func(T) error) (*Pool[T], error) {
	if max < min {
		max = min
	}

	p := &Pool[T]{
		instances: make(chan T, max),
		min:       min,
		max:       max,
		create:    create,
		destroy:   destroy,
	}

	for i := 0; i < min; i++ {
		inst, err := create(ctx)
		if err != nil {
			_ = p.Close(ctx)
			return nil, err
		}
		p.instances <- inst
		p.numLive++
	}

	return p, nil
}

// Lease is a scoped acquisition: Release is idempotent and safe to defer
// unconditionally, satisfying the "every acquire is followed by exactly
// one release" invariant (spec.md §4.3, §8) even on early-return error
// paths.
type Lease[T any] struct {
	pool     *Pool[T]
	instance T
	mu       sync.Mutex
	released bool
}

// Instance returns the leased renderer.
func (l *Lease[T]) Instance() T { return l.instance }

// Release returns the instance to the pool. Calling it more than once is
// a no-op.
func (l *Lease[T]) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()

	l.pool.release(l.instance)
}

// Acquire reserves an instance, blocking (respecting ctx cancellation)
// until one is idle or a new one can be lazily constructed under max.
func (p *Pool[T]) Acquire(ctx context.Context) (*Lease[T], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	select {
	case inst := <-p.instances:
		p.mu.Unlock()
		return &Lease[T]{pool: p, instance: inst}, nil
	default:
	}

	if p.numLive < p.max {
		p.numLive++
		p.mu.Unlock()

		inst, err := p.create(ctx)
		if err != nil {
			p.mu.Lock()
			p.numLive--
			p.mu.Unlock()
			return nil, err
		}
		return &Lease[T]{pool: p, instance: inst}, nil
	}
	p.mu.Unlock()

	select {
	case inst, ok := <-p.instances:
		if !ok {
			return nil, ErrClosed
		}
		return &Lease[T]{pool: p, instance: inst}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool[T]) release(inst T) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = p.destroy(inst)
		p.mu.Lock()
		p.numLive--
		p.mu.Unlock()
		return
	}

	// the closed-check and the send happen under the same lock Close
	// uses to flip closed and close the channel, so a pool that was
	// still open when checked above is still open for this send.
	select {
	case p.instances <- inst:
		p.mu.Unlock()
	default:
		// cap(instances) == max >= numLive, so this should never block;
		// if it somehow would, destroy rather than leak the instance.
		p.mu.Unlock()
		_ = p.destroy(inst)
		p.mu.Lock()
		p.numLive--
		p.mu.Unlock()
	}
}

// Close drains the pool, destroying every idle instance. Instances
// currently on loan are destroyed as soon as they're released rather
// than blocking Close; in-flight renders using them run to completion
// (spec.md §5 cancellation semantics).
func (p *Pool[T]) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	// closing the channel under the same lock release's send uses
	// rules out a send racing a close of the same channel.
	close(p.instances)
	p.mu.Unlock()

	var firstErr error
	for inst := range p.instances {
		if err := p.destroy(inst); err != nil && firstErr == nil {
			firstErr = err
		}
		p.mu.Lock()
		p.numLive--
		p.mu.Unlock()
	}

	return firstErr
}

// Len reports the number of currently idle instances (for tests/metrics).
func (p *Pool[T]) Len() int {
	return len(p.instances)
}
