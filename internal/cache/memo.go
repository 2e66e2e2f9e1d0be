package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultComputeTimeout bounds a shared computation once it no longer
// follows any single caller's context.
const DefaultComputeTimeout = 30 * time.Second

// Memo computes values through a cache, collapsing concurrent computations
// of the same key into one.
//
// Every Invalidate starts a new generation. A computation that began in an
// older generation still answers the callers that joined it, but its result
// is never stored, and callers arriving after the Invalidate start a fresh
// computation instead of joining the old one.
type Memo[T any] struct {
	cache   Cache[T]
	group   singleflight.Group
	timeout time.Duration

	mu  sync.RWMutex // held for writing while the generation moves
	gen uint64
}

func NewMemo[T any](c Cache[T]) *Memo[T] {
	return &Memo[T]{cache: c, timeout: DefaultComputeTimeout}
}

// Do returns the cached value for key or computes, stores and returns it.
// Errors are not cached. The computation runs detached from ctx, so a
// caller giving up only abandons its own wait.
func (m *Memo[T]) Do(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := m.cache.Get(ctx, key); ok {
		return v, nil
	}

	gen := m.generation()
	ch := m.group.DoChan(strconv.FormatUint(gen, 10)+":"+key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()
		if v, ok := m.cache.Get(cctx, key); ok {
			return v, nil
		}
		v, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		m.store(cctx, gen, key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("compute %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, fmt.Errorf("compute %s: %w", key, res.Err)
		}
		return res.Val.(T), nil
	}
}

// Invalidate drops everything memoized so far, including results of
// computations still in flight.
func (m *Memo[T]) Invalidate(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.cache.Purge(ctx)
}

func (m *Memo[T]) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

// store caches v only if no Invalidate happened since gen was read.
func (m *Memo[T]) store(ctx context.Context, gen uint64, key string, v T) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.gen != gen {
		return
	}
	m.cache.Set(ctx, key, v)
}
