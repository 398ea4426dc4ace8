// Package cache provides small in-process TTL caches. Concurrent misses on
// the same entry share one upstream fetch instead of stampeding.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Value holds a single lazily-populated value. A non-positive TTL means the
// value never expires once populated.
type Value[T any] struct {
	ttl time.Duration

	mu        sync.RWMutex
	val       T
	fetchedAt time.Time

	group singleflight.Group
}

func NewValue[T any](ttl time.Duration) *Value[T] {
	return &Value[T]{ttl: ttl}
}

// Get returns the cached value, calling fetch to populate or refresh it
// when absent or expired. Errors from fetch are returned without caching.
func (v *Value[T]) Get(fetch func() (T, error)) (T, error) {
	if val, ok := v.fresh(); ok {
		return val, nil
	}

	res, err, _ := v.group.Do("value", func() (any, error) {
		// A concurrent caller may have refreshed while we waited.
		if val, ok := v.fresh(); ok {
			return val, nil
		}

		val, err := fetch()
		if err != nil {
			return nil, err
		}

		v.mu.Lock()
		v.val = val
		v.fetchedAt = time.Now()
		v.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (v *Value[T]) fresh() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.fetchedAt.IsZero() {
		var zero T
		return zero, false
	}
	if v.ttl > 0 && time.Since(v.fetchedAt) >= v.ttl {
		var zero T
		return zero, false
	}
	return v.val, true
}

// Invalidate drops the cached value so the next Get refetches.
func (v *Value[T]) Invalidate() {
	v.mu.Lock()
	v.fetchedAt = time.Time{}
	var zero T
	v.val = zero
	v.mu.Unlock()
}

type mapEntry[T any] struct {
	val       T
	fetchedAt time.Time
}

// Map is a keyed variant of Value for results memoized per argument
// signature. Expired entries are replaced on access, not actively evicted.
type Map[T any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]mapEntry[T]

	group singleflight.Group
}

func NewMap[T any](ttl time.Duration) *Map[T] {
	return &Map[T]{
		ttl:     ttl,
		entries: make(map[string]mapEntry[T]),
	}
}

func (m *Map[T]) Get(key string, fetch func() (T, error)) (T, error) {
	if val, ok := m.fresh(key); ok {
		return val, nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		if val, ok := m.fresh(key); ok {
			return val, nil
		}

		val, err := fetch()
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.entries[key] = mapEntry[T]{val: val, fetchedAt: time.Now()}
		m.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (m *Map[T]) fresh(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if m.ttl > 0 && time.Since(entry.fetchedAt) >= m.ttl {
		var zero T
		return zero, false
	}
	return entry.val, true
}
