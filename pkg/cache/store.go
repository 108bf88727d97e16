package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache backend.
// A missing key is reported as found == false with a nil error.
type Store interface {
	// Name identifies the backend in logs
	Name() string

	// Open establishes connectivity; stores without a connection treat it as a no-op
	Open(ctx context.Context) error
	Close() error

	// Prepare creates backend-side structures such as a backing table
	Prepare(ctx context.Context) error

	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set writes value; ttl > 0 requests native expiry where the backend has it
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	// Flush empties the whole backend namespace, not only keys written by this cache
	Flush(ctx context.Context) error
}
