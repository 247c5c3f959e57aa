// Package locker provides mutual exclusion scoped to an arbitrary key.
//
// A KeyedLock lazily creates one mutex per key. Operations on the same key run
// one at a time; operations on different keys never wait on each other. Blocked
// callers are queued and take ownership strictly in the order they started
// waiting; a release hands the key directly to the oldest waiter.
//
// Reentrancy is tied to a holder token carried by the context returned from
// Acquire (or passed to the body of Run/Do). Re-acquiring with that context
// nests instead of deadlocking. Do not share a holder context between
// goroutines: they would be treated as one logical caller.
package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type holderKey struct{}

var holderSeq atomic.Uint64

// WithHolder returns ctx tagged with a holder token, minting a new one if ctx
// does not carry one yet.
func WithHolder(ctx context.Context) context.Context {
	if _, ok := holderFrom(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, holderKey{}, holderSeq.Add(1))
}

func holderFrom(ctx context.Context) (uint64, bool) {
	h, ok := ctx.Value(holderKey{}).(uint64)
	return h, ok
}

type entry struct {
	owner   uint64 // 0 when free
	depth   int
	waiters []*waiter // FIFO; the head receives ownership on release
	refs    int       // holder + waiters; the entry is evicted at zero
}

type waiter struct {
	holder uint64
	ready  chan struct{} // closed once ownership is handed over
}

type options struct {
	onWait func(time.Duration)
	onSize func(int)
}

// Option configures a KeyedLock.
type Option func(*options)

// WithWaitObserver reports how long each non-reentrant Acquire waited.
func WithWaitObserver(fn func(time.Duration)) Option {
	return func(o *options) { o.onWait = fn }
}

// WithSizeObserver reports the number of live entries whenever it changes.
func WithSizeObserver(fn func(int)) Option {
	return func(o *options) { o.onSize = fn }
}

// KeyedLock serializes callers per key. The zero value is not usable; call New.
type KeyedLock[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
	opts    options
}

// New returns an empty KeyedLock.
func New[K comparable](opts ...Option) *KeyedLock[K] {
	l := &KeyedLock[K]{entries: make(map[K]*entry)}
	for _, o := range opts {
		o(&l.opts)
	}
	return l
}

// Acquire blocks until the caller owns key, or ctx is done. The returned
// context identifies the owner and must be passed to Release.
func (l *KeyedLock[K]) Acquire(ctx context.Context, key K) (context.Context, error) {
	ctx = WithHolder(ctx)
	h, _ := holderFrom(ctx)
	start := time.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	if e.owner == h {
		e.depth++
		l.mu.Unlock()
		return ctx, nil
	}
	e.refs++
	size := len(l.entries)
	if e.owner == 0 {
		e.owner = h
		e.depth = 1
		l.mu.Unlock()
		if !ok {
			l.reportSize(size)
		}
		l.observeWait(start)
		return ctx, nil
	}
	w := &waiter{holder: h, ready: make(chan struct{})}
	e.waiters = append(e.waiters, w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		l.observeWait(start)
		return ctx, nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	var evicted bool
	select {
	case <-w.ready:
		// ownership arrived while giving up; pass it on
		size, evicted = l.handoff(key, e)
	default:
		e.dequeue(w)
		size, evicted = l.unref(key, e)
	}
	l.mu.Unlock()
	if evicted {
		l.reportSize(size)
	}
	return ctx, ctx.Err()
}

// Release gives up one level of ownership. It is a no-op when the holder in
// ctx does not own key.
func (l *KeyedLock[K]) Release(ctx context.Context, key K) {
	h, ok := holderFrom(ctx)
	if !ok {
		return
	}

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok || e.owner != h {
		l.mu.Unlock()
		return
	}
	e.depth--
	if e.depth > 0 {
		l.mu.Unlock()
		return
	}
	size, evicted := l.handoff(key, e)
	l.mu.Unlock()

	if evicted {
		l.reportSize(size)
	}
}

// Held reports whether the holder in ctx currently owns key.
func (l *KeyedLock[K]) Held(ctx context.Context, key K) bool {
	h, ok := holderFrom(ctx)
	if !ok {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	return ok && e.owner == h
}

// Len returns the number of keys currently held or waited on.
func (l *KeyedLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run executes fn while owning key. The lock is released on every exit path,
// including a panic in fn.
func (l *KeyedLock[K]) Run(ctx context.Context, key K, fn func(context.Context) error) error {
	_, err := Do(ctx, l, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is Run with a result.
func Do[K comparable, T any](ctx context.Context, l *KeyedLock[K], key K, fn func(context.Context) (T, error)) (T, error) {
	ctx, err := l.Acquire(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	defer l.Release(ctx, key)
	return fn(ctx)
}

// handoff passes ownership to the oldest waiter, or frees the entry. Must be
// called with l.mu held by the current owner.
func (l *KeyedLock[K]) handoff(key K, e *entry) (int, bool) {
	if len(e.waiters) == 0 {
		e.owner, e.depth = 0, 0
		return l.unref(key, e)
	}
	next := e.waiters[0]
	e.waiters[0] = nil
	e.waiters = e.waiters[1:]
	e.owner, e.depth = next.holder, 1
	e.refs--
	close(next.ready)
	return len(l.entries), false
}

func (e *entry) dequeue(w *waiter) {
	for i, q := range e.waiters {
		if q == w {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}

// queued returns the number of callers waiting on key.
func (l *KeyedLock[K]) queued(key K) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		return len(e.waiters)
	}
	return 0
}

// unref must be called with l.mu held.
func (l *KeyedLock[K]) unref(key K, e *entry) (int, bool) {
	e.refs--
	if e.refs > 0 {
		return len(l.entries), false
	}
	delete(l.entries, key)
	return len(l.entries), true
}

func (l *KeyedLock[K]) observeWait(start time.Time) {
	if l.opts.onWait != nil {
		l.opts.onWait(time.Since(start))
	}
}

func (l *KeyedLock[K]) reportSize(n int) {
	if l.opts.onSize != nil {
		l.opts.onSize(n)
	}
}
