package rendererpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInstance struct{ id int }

func newCountingFactory() (func(ctx context.Context) (*fakeInstance, error), *int32) {
	var created int32
	create := func(ctx context.Context) (*fakeInstance, error) {
		n := atomic.AddInt32(&created, 1)
		return &fakeInstance{id: int(n)}, nil
	}
	return create, &created
}

func TestNewEagerlyCreatesMinInstances(t *testing.T) {
	create, created := newCountingFactory()
	pool, err := New(context.Background(), 2, 4, create, func(*fakeInstance) error { return nil })
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(created))
	assert.Equal(t, 2, pool.Len())
}

func TestAcquireReleaseRoundTripReusesInstance(t *testing.T) {
	create, created := newCountingFactory()
	pool, err := New(context.Background(), 1, 1, create, func(*fakeInstance) error { return nil })
	require.NoError(t, err)

	lease, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	first := lease.Instance()
	lease.Release()

	lease2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, lease2.Instance())
	lease2.Release()

	assert.EqualValues(t, 1, atomic.LoadInt32(created))
}

func TestAcquireGrowsLazilyUpToMax(t *testing.T) {
	create, created := newCountingFactory()
	pool, err := New(context.Background(), 1, 2, create, func(*fakeInstance) error { return nil })
	require.NoError(t, err)

	lease1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	lease2, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(created))

	lease1.Release()
	lease2.Release()
}

func TestAcquireBlocksAtMaxUntilContextCancelled(t *testing.T) {
	create, _ := newCountingFactory()
	pool, err := New(context.Background(), 1, 1, create, func(*fakeInstance) error { return nil })
	require.NoError(t, err)

	lease, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	lease.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	create, _ := newCountingFactory()
	pool, err := New(context.Background(), 1, 1, create, func(*fakeInstance) error { return nil })
	require.NoError(t, err)

	lease, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	lease.Release()
	assert.NotPanics(t, func() { lease.Release() })

	assert.Equal(t, 1, pool.Len())
}

func TestCloseDestroysIdleInstances(t *testing.T) {
	var destroyed int32
	create, _ := newCountingFactory()
	destroy := func(*fakeInstance) error {
		atomic.AddInt32(&destroyed, 1)
		return nil
	}

	pool, err := New(context.Background(), 2, 2, create, destroy)
	require.NoError(t, err)

	require.NoError(t, pool.Close(context.Background()))
	assert.EqualValues(t, 2, atomic.LoadInt32(&destroyed))

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseDestroysOnLoanInstanceAfterRelease(t *testing.T) {
	var destroyed int32
	create, _ := newCountingFactory()
	destroy := func(*fakeInstance) error {
		atomic.AddInt32(&destroyed, 1)
		return nil
	}

	pool, err := New(context.Background(), 1, 1, create, destroy)
	require.NoError(t, err)

	lease, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, pool.Close(context.Background()))
	assert.EqualValues(t, 0, atomic.LoadInt32(&destroyed))

	lease.Release()
	assert.EqualValues(t, 1, atomic.LoadInt32(&destroyed))
}

// TestConcurrentReleaseDuringCloseDoesNotPanic guards against a release
// racing a Remove-triggered Close: a lease returned just as Close starts
// must still be returnable without a send on an already-closed channel.
func TestConcurrentReleaseDuringCloseDoesNotPanic(t *testing.T) {
	create, _ := newCountingFactory()
	destroy := func(*fakeInstance) error { return nil }

	pool, err := New(context.Background(), 8, 8, create, destroy)
	require.NoError(t, err)

	leases := make([]*Lease[*fakeInstance], 8)
	for i := range leases {
		lease, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		leases[i] = lease
	}

	var wg sync.WaitGroup
	var panicked atomic.Bool

	for _, lease := range leases {
		wg.Add(1)
		go func(l *Lease[*fakeInstance]) {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					panicked.Store(true)
				}
			}()
			l.Release()
		}(lease)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if recover() != nil {
				panicked.Store(true)
			}
		}()
		_ = pool.Close(context.Background())
	}()

	wg.Wait()
	assert.False(t, panicked.Load())
}
