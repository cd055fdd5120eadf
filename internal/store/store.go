// Package store defines the keyed store port the state engine writes
// through. Implementations may be backed by memory, disk, or a remote cache;
// every operation takes a context because backends are allowed to suspend on
// I/O, and every operation must be idempotent so replayed dispatches stay
// harmless.
package store

import (
	"context"

	"github.com/samber/mo"
)

// Entry pairs a key with the value to upsert under it.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Store is the per-entity-kind keyed store contract. Range operations treat
// both bounds as inclusive and order keys by the implementation's key
// ordering; pair-keyed stores use this to fetch or drop "all children of
// parent X" by encoding the parent in the key's major component.
type Store[K comparable, V any] interface {
	// Find returns the value under key, or None when absent.
	Find(ctx context.Context, key K) (mo.Option[V], error)

	// FindInRange returns every value whose key falls within [lo, hi],
	// ordered by key.
	FindInRange(ctx context.Context, lo, hi K) ([]V, error)

	// Save upserts one value. Saving the same pair twice is a no-op overwrite.
	Save(ctx context.Context, key K, value V) error

	// SaveMany upserts a batch of entries.
	SaveMany(ctx context.Context, entries []Entry[K, V]) error

	// Delete removes one key; deleting an absent key is not an error.
	Delete(ctx context.Context, key K) error

	// DeleteMany removes a batch of keys.
	DeleteMany(ctx context.Context, keys []K) error

	// DeleteInRange removes every key within [lo, hi].
	DeleteInRange(ctx context.Context, lo, hi K) error

	// Values returns every stored value, ordered by key.
	Values(ctx context.Context) ([]V, error)

	// Keys returns every stored key, ordered.
	Keys(ctx context.Context) ([]K, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	// Invalidate drops every entry. Callers must await completion before
	// reusing the store for a fresh data generation.
	Invalidate(ctx context.Context) error
}
