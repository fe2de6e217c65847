// Package gstore provides generic object pooling for the hot
// materialisation and reconciliation paths: repeated query execution and
// tree reconciliation allocate scratch maps and slices whose lifetime is
// scoped to a single call, and whose shape repeats on every call. Pooling
// those reduces GC churn under sustained mutation/re-query load.
//
// Adapted from the teacher's pkg/pool (a sync.Pool-backed set of typed
// Get/Put functions gated by a global PoolConfig{Enabled,MaxSize}):
// generalized here with Go generics into two reusable shapes, SlicePool
// and MapPool, parameterized per call site instead of one pool per
// concrete type.
package gstore

import "sync"

// Config gates and bounds one Pool's behavior, same fields and meaning as
// the teacher's PoolConfig.
type Config struct {
	// Enabled controls whether Get/Put actually pool; false makes every
	// Get allocate fresh and every Put a no-op.
	Enabled bool
	// MaxSize caps the capacity/length a returned object may have for it
	// to be accepted back into the pool, preventing one oversized use
	// from pinning a large allocation in the pool indefinitely.
	MaxSize int
}

// DefaultConfig matches the teacher's global default (enabled, 1000).
func DefaultConfig() Config {
	return Config{Enabled: true, MaxSize: 1000}
}

func (c Config) normalized() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultConfig().MaxSize
	}
	return c
}

// SlicePool pools []T scratch slices of a given starting capacity.
type SlicePool[T any] struct {
	cfg  Config
	cap  int
	pool sync.Pool
}

// NewSlicePool returns a SlicePool whose fresh allocations start at
// capacity cap.
func NewSlicePool[T any](cfg Config, cap int) *SlicePool[T] {
	cfg = cfg.normalized()
	return &SlicePool[T]{
		cfg: cfg,
		cap: cap,
		pool: sync.Pool{
			New: func() any { return make([]T, 0, cap) },
		},
	}
}

// Get returns a zero-length slice, pooled or freshly allocated.
func (p *SlicePool[T]) Get() []T {
	if !p.cfg.Enabled {
		return make([]T, 0, p.cap)
	}
	return p.pool.Get().([]T)[:0]
}

// Put returns s to the pool, clearing its elements first so pooled
// pointers don't keep their referents alive. Slices grown past MaxSize
// are dropped instead of pooled.
func (p *SlicePool[T]) Put(s []T) {
	if !p.cfg.Enabled || cap(s) > p.cfg.MaxSize {
		return
	}
	var zero T
	for i := range s {
		s[i] = zero
	}
	p.pool.Put(s[:0]) //nolint:staticcheck // intentional: zero-length, retained capacity
}

// MapPool pools map[K]V scratch maps.
type MapPool[K comparable, V any] struct {
	cfg  Config
	pool sync.Pool
}

// NewMapPool returns a MapPool for map[K]V.
func NewMapPool[K comparable, V any](cfg Config) *MapPool[K, V] {
	cfg = cfg.normalized()
	return &MapPool[K, V]{
		cfg: cfg,
		pool: sync.Pool{
			New: func() any { return make(map[K]V, 8) },
		},
	}
}

// Get returns an empty map, pooled or freshly allocated.
func (p *MapPool[K, V]) Get() map[K]V {
	if !p.cfg.Enabled {
		return make(map[K]V, 8)
	}
	return p.pool.Get().(map[K]V)
}

// Put clears and returns m to the pool. Maps grown past MaxSize entries
// are dropped instead of pooled.
func (p *MapPool[K, V]) Put(m map[K]V) {
	if !p.cfg.Enabled || m == nil || len(m) > p.cfg.MaxSize {
		return
	}
	for k := range m {
		delete(m, k)
	}
	p.pool.Put(m)
}
