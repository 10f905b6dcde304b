// Package repository declares the storage contracts the application depends
// on. Concrete implementations live in subpackages (sqlite); the session
// store only ever sees these interfaces.
package repository

import "context"

// KVStore is a durable key-value store with text values. It is the
// persistence target for the session store: each piece of session state is
// serialized under a fixed key, and logout clears the session's keys with a
// single prefix delete rather than wiping unrelated entries.
//
// Get returns apperror.ErrNotFound (wrapped) when the key is absent, so
// callers can distinguish "no saved state" from a real storage failure.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
