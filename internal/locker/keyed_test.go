package locker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	l := New[int64]()
	ctx := context.Background()

	var inside, maxInside int32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Run(ctx, 1, func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				counter++
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLock_DistinctKeysDoNotBlock(t *testing.T) {
	l := New[int64]()

	held, err := l.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer l.Release(held, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	other, err := l.Acquire(ctx, 2)
	require.NoError(t, err)
	assert.True(t, l.Held(other, 2))
	assert.False(t, l.Held(other, 1))
	l.Release(other, 2)
}

func TestKeyedLock_Reentrant(t *testing.T) {
	l := New[string]()

	err := l.Run(context.Background(), "u1", func(ctx context.Context) error {
		return l.Run(ctx, "u1", func(ctx context.Context) error {
			assert.True(t, l.Held(ctx, "u1"))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLock_ReentrantReleaseKeepsOuterHold(t *testing.T) {
	l := New[int64]()

	ctx, err := l.Acquire(context.Background(), 7)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, 7)
	require.NoError(t, err)

	l.Release(ctx, 7)
	assert.True(t, l.Held(ctx, 7))

	l.Release(ctx, 7)
	assert.False(t, l.Held(ctx, 7))
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLock_ReleaseWithoutHoldingIsNoop(t *testing.T) {
	l := New[int64]()

	assert.NotPanics(t, func() {
		l.Release(context.Background(), 1)
		l.Release(WithHolder(context.Background()), 1)
	})

	owner, err := l.Acquire(context.Background(), 1)
	require.NoError(t, err)

	stranger := WithHolder(context.Background())
	l.Release(stranger, 1)
	assert.True(t, l.Held(owner, 1))

	l.Release(owner, 1)
	l.Release(owner, 1)
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLock_ReleasesOnError(t *testing.T) {
	l := New[int64]()
	boom := errors.New("boom")

	err := l.Run(context.Background(), 3, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := l.Acquire(ctx, 3)
	require.NoError(t, err)
	l.Release(got, 3)
}

func TestKeyedLock_ReleasesOnPanic(t *testing.T) {
	l := New[int64]()

	assert.Panics(t, func() {
		_ = l.Run(context.Background(), 4, func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, 0, l.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := l.Acquire(ctx, 4)
	require.NoError(t, err)
	l.Release(got, 4)
}

func TestDo_ReturnsResult(t *testing.T) {
	l := New[int64]()

	v, err := Do(context.Background(), l, 9, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestKeyedLock_AcquireHonoursContext(t *testing.T) {
	l := New[int64]()

	owner, err := l.Acquire(context.Background(), 5)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Len())

	l.Release(owner, 5)
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLock_Observers(t *testing.T) {
	var waits int32
	var sizes []int
	var mu sync.Mutex

	l := New[int64](
		WithWaitObserver(func(time.Duration) { atomic.AddInt32(&waits, 1) }),
		WithSizeObserver(func(n int) {
			mu.Lock()
			sizes = append(sizes, n)
			mu.Unlock()
		}),
	)

	require.NoError(t, l.Run(context.Background(), 1, func(ctx context.Context) error {
		return l.Run(ctx, 1, func(context.Context) error { return nil })
	}))

	assert.Equal(t, int32(1), atomic.LoadInt32(&waits))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 0}, sizes)
}

func TestKeyedLock_WaitersAcquireInArrivalOrder(t *testing.T) {
	l := New[int64]()
	owner, err := l.Acquire(context.Background(), 1)
	require.NoError(t, err)

	const n = 8
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, err := l.Acquire(context.Background(), 1)
			if !assert.NoError(t, err) {
				return
			}
			order = append(order, i) // guarded by the key
			l.Release(ctx, 1)
		}(i)
		// waiter i is enqueued before waiter i+1 starts
		require.Eventually(t, func() bool { return l.queued(1) == i+1 }, time.Second, time.Millisecond)
	}

	l.Release(owner, 1)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLock_CancelledWaiterLeavesQueue(t *testing.T) {
	l := New[int64]()
	owner, err := l.Acquire(context.Background(), 1)
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.Acquire(cctx, 1)
		errc <- err
	}()
	require.Eventually(t, func() bool { return l.queued(1) == 1 }, time.Second, time.Millisecond)

	got := make(chan struct{})
	go func() {
		ctx, err := l.Acquire(context.Background(), 1)
		if assert.NoError(t, err) {
			l.Release(ctx, 1)
		}
		close(got)
	}()
	require.Eventually(t, func() bool { return l.queued(1) == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, 1, l.queued(1))

	l.Release(owner, 1)
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("next waiter never acquired the key")
	}
	assert.Equal(t, 0, l.Len())
}
