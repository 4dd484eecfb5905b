// Package kvstore defines the persistent key-value collaborator the
// authentication core reads and writes through, plus three backends:
// in-memory (tests), sqlite (local single-file), and postgres (server).
package kvstore

import "context"

// Store is the boundary contract with the persistence collaborator.
// Get returns common.ErrNotFound when the key is absent. Implementations
// must be safe for concurrent use; read-modify-write atomicity across calls
// is the caller's responsibility.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
