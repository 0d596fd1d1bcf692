package storage

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

var ErrNotFound = errors.New("storage: not found")

// Store is the durable local storage of the client. It keeps only what the
// browser would: a small key/value area (session record, cookie consent)
// and the cookies of the API origin. Concrete drivers implement it.
type Store interface {
	KV() KV
	Cookies() Cookies

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying database.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is the transactional view of a Store.
type Tx interface {
	KV() KV
	Cookies() Cookies
}

type KV interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces the value of key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key.
	Clear(ctx context.Context) error
}

type Cookies interface {
	// Replace swaps the whole persisted jar for cookies.
	Replace(ctx context.Context, cookies []apiclient.StoredCookie) error

	// List returns the persisted cookies ordered by name.
	List(ctx context.Context) ([]apiclient.StoredCookie, error)

	// Clear forgets every cookie.
	Clear(ctx context.Context) error
}
