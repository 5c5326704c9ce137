// Package storage provides the persistent session store for the storefront client.
// The store holds the bearer token, the cart, the pending order and the payment
// hand-off, and survives process restarts.
package storage

import (
	"context"
	"errors"
)

// Well-known session keys.
const (
	KeyToken   = "token"
	KeyCart    = "cart"
	KeyOrder   = "order"
	KeyPayment = "payment"
)

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// SessionStore is a key/value byte-string store.
// All implementations must be:
// - Context-aware (respecting cancellation/timeout)
// - Explicit about errors (never swallow)
// - Atomic for Commit: a batch is applied entirely or not at all
type SessionStore interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Commit applies every put and delete in the batch atomically.
	Commit(ctx context.Context, batch Batch) error

	// CheckConnectivity verifies the backend is reachable.
	CheckConnectivity(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Batch is a set of writes applied together by Commit.
// Deletes are applied after puts, so a key present in both ends up deleted.
type Batch struct {
	Puts    map[string][]byte
	Deletes []string
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{Puts: make(map[string][]byte)}
}

// Put records a write of value under key.
func (b *Batch) Put(key string, value []byte) *Batch {
	if b.Puts == nil {
		b.Puts = make(map[string][]byte)
	}
	b.Puts[key] = value
	return b
}

// Delete records a removal of key.
func (b *Batch) Delete(key string) *Batch {
	b.Deletes = append(b.Deletes, key)
	return b
}

// Empty reports whether the batch has no operations.
func (b *Batch) Empty() bool {
	return len(b.Puts) == 0 && len(b.Deletes) == 0
}

// checkContext verifies the context is not cancelled or timed out.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
