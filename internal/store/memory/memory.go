// Package memory provides the default in-process implementation of the store
// port. Entries live in a plain map guarded by a mutex; range and scan
// operations sort keys on demand, trading scan cost for cheap point access,
// which matches the engine's write-heavy access pattern. An optional LRU
// capacity bound exists for stores with unbounded natural growth (messages).
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/samber/mo"

	"statehold/internal/store"
)

// Option configures a Store.
type Option[K comparable, V any] func(*Store[K, V])

// WithMaxEntries bounds the store to n entries, evicting least-recently-saved
// entries silently once the bound is exceeded. Zero or negative n means
// unbounded.
func WithMaxEntries[K comparable, V any](n int) Option[K, V] {
	return func(s *Store[K, V]) {
		s.maxEntries = n
	}
}

// Store is a mutex-guarded map store ordered by the supplied key comparison.
type Store[K comparable, V any] struct {
	mu         sync.RWMutex
	less       func(K, K) bool
	entries    map[K]V
	maxEntries int
	order      *list.List
	index      map[K]*list.Element
}

// New creates an empty store ordered by less.
func New[K comparable, V any](less func(K, K) bool, opts ...Option[K, V]) *Store[K, V] {
	s := &Store[K, V]{
		less:    less,
		entries: make(map[K]V),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxEntries > 0 {
		s.order = list.New()
		s.index = make(map[K]*list.Element)
	}

	return s
}

// Find implements store.Store.
func (s *Store[K, V]) Find(ctx context.Context, key K) (mo.Option[V], error) {
	if err := ctx.Err(); err != nil {
		return mo.None[V](), err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, found := s.entries[key]
	if !found {
		return mo.None[V](), nil
	}

	return mo.Some(value), nil
}

// FindInRange implements store.Store. Bounds are inclusive on both ends.
func (s *Store[K, V]) FindInRange(ctx context.Context, lo, hi K) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.keysInRangeLocked(lo, hi)
	values := make([]V, 0, len(keys))
	for _, key := range keys {
		values = append(values, s.entries[key])
	}

	return values, nil
}

// Save implements store.Store.
func (s *Store[K, V]) Save(ctx context.Context, key K, value V) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(key, value)

	return nil
}

// SaveMany implements store.Store.
func (s *Store[K, V]) SaveMany(ctx context.Context, entries []store.Entry[K, V]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.saveLocked(entry.Key, entry.Value)
	}

	return nil
}

// Delete implements store.Store. Absent keys are tolerated.
func (s *Store[K, V]) Delete(ctx context.Context, key K) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(key)

	return nil
}

// DeleteMany implements store.Store.
func (s *Store[K, V]) DeleteMany(ctx context.Context, keys []K) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.deleteLocked(key)
	}

	return nil
}

// DeleteInRange implements store.Store.
func (s *Store[K, V]) DeleteInRange(ctx context.Context, lo, hi K) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.keysInRangeLocked(lo, hi) {
		s.deleteLocked(key)
	}

	return nil
}

// Values implements store.Store.
func (s *Store[K, V]) Values(ctx context.Context) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.sortedKeysLocked()
	values := make([]V, 0, len(keys))
	for _, key := range keys {
		values = append(values, s.entries[key])
	}

	return values, nil
}

// Keys implements store.Store.
func (s *Store[K, V]) Keys(ctx context.Context) ([]K, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedKeysLocked(), nil
}

// Count implements store.Store.
func (s *Store[K, V]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.entries)), nil
}

// Invalidate implements store.Store.
func (s *Store[K, V]) Invalidate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[K]V)
	if s.maxEntries > 0 {
		s.order.Init()
		s.index = make(map[K]*list.Element)
	}

	return nil
}

func (s *Store[K, V]) saveLocked(key K, value V) {
	s.entries[key] = value
	if s.maxEntries <= 0 {
		return
	}

	if element, known := s.index[key]; known {
		s.order.MoveToFront(element)
	} else {
		s.index[key] = s.order.PushFront(key)
	}
	s.trimLocked()
}

func (s *Store[K, V]) deleteLocked(key K) {
	delete(s.entries, key)
	if s.maxEntries <= 0 {
		return
	}
	if element, known := s.index[key]; known {
		s.order.Remove(element)
		delete(s.index, key)
	}
}

func (s *Store[K, V]) trimLocked() {
	for len(s.entries) > s.maxEntries {
		back := s.order.Back()
		if back == nil {
			return
		}
		oldest, ok := back.Value.(K)
		if !ok {
			s.order.Remove(back)
			continue
		}
		s.deleteLocked(oldest)
	}
}

func (s *Store[K, V]) sortedKeysLocked() []K {
	keys := make([]K, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return s.less(keys[i], keys[j]) })

	return keys
}

func (s *Store[K, V]) keysInRangeLocked(lo, hi K) []K {
	keys := make([]K, 0)
	for key := range s.entries {
		if s.less(key, lo) || s.less(hi, key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return s.less(keys[i], keys[j]) })

	return keys
}
