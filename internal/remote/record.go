package remote

import (
	"context"
	"time"

	"github.com/roach88/cartsync/internal/collection"
)

// RecordKey addresses one remote record. Cart and wishlist use distinct kinds
// so they never collide under the same owner.
type RecordKey struct {
	Owner string
	Kind  collection.Kind
}

// Record is a stored remote snapshot.
type Record struct {
	Key       RecordKey
	Payload   []byte
	UpdatedAt time.Time
}

// RecordStore is the generic record API a remote backend exposes.
//
// GetRecord returns ErrRecordNotFound (possibly wrapped) when the key has no
// record. Errors that mean "the backend refused" should be wrapped with
// Rejected; anything else is treated as unreachable.
type RecordStore interface {
	GetRecord(ctx context.Context, key RecordKey) (Record, error)
	PutRecord(ctx context.Context, rec Record) error
}
