package remote

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/cartsync/internal/collection"
)

// DefaultTimeout bounds each remote call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Backend is the remote collection backend the engines depend on.
//
// Thread-safety: Backend holds no mutable state; concurrency safety is that
// of the underlying RecordStore.
type Backend struct {
	records RecordStore
	timeout time.Duration
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithTimeout sets the per-call bound. Zero or negative disables the bound
// and leaves timeouts to the caller's context and the transport.
func WithTimeout(d time.Duration) BackendOption {
	return func(b *Backend) {
		b.timeout = d
	}
}

// NewBackend wraps records.
func NewBackend(records RecordStore, opts ...BackendOption) *Backend {
	b := &Backend{records: records, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fetch reads and normalizes the owner's snapshot of kind.
// All failures are returned as *Error.
func (b *Backend) Fetch(ctx context.Context, owner string, kind collection.Kind) (collection.Collection, error) {
	key := RecordKey{Owner: owner, Kind: kind}
	if owner == "" {
		return collection.Collection{}, classify("fetch", key, Rejected(errors.New("owner is empty")))
	}

	ctx, cancel := b.bound(ctx)
	defer cancel()

	rec, err := b.records.GetRecord(ctx, key)
	if err != nil {
		return collection.Collection{}, classify("fetch", key, err)
	}

	c, err := DecodeSnapshot(rec.Payload, kind, rec.UpdatedAt)
	if err != nil {
		return collection.Collection{}, &Error{Code: CodeMalformed, Op: "fetch", Owner: owner, Kind: kind, Err: err}
	}
	return c, nil
}

// Push writes the full snapshot of c under the owner's key.
// All failures are returned as *Error.
func (b *Backend) Push(ctx context.Context, owner string, c collection.Collection) error {
	key := RecordKey{Owner: owner, Kind: c.Kind}
	if owner == "" {
		return classify("push", key, Rejected(errors.New("owner is empty")))
	}

	payload, err := collection.Marshal(c)
	if err != nil {
		return &Error{Code: CodeMalformed, Op: "push", Owner: owner, Kind: c.Kind, Err: err}
	}

	ctx, cancel := b.bound(ctx)
	defer cancel()

	rec := Record{Key: key, Payload: payload, UpdatedAt: c.UpdatedAt}
	if err := b.records.PutRecord(ctx, rec); err != nil {
		return classify("push", key, err)
	}
	return nil
}

func (b *Backend) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}
