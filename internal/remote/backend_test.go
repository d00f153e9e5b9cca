package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartsync/internal/collection"
)

func cartFixture() collection.Collection {
	c := collection.New(collection.KindCart)
	c.Entries = []collection.Entry{{ID: "e1", Item: collection.Product{ID: "p1", Price: 1000}, Quantity: 2}}
	c.Recompute()
	c.Touch(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	return c
}

func TestBackend_PushThenFetch(t *testing.T) {
	records := NewMemoryRecords()
	b := NewBackend(records)
	ctx := context.Background()

	require.NoError(t, b.Push(ctx, "u1", cartFixture()))

	got, err := b.Fetch(ctx, "u1", collection.KindCart)
	require.NoError(t, err)
	assert.Equal(t, cartFixture(), got)
}

func TestBackend_KindsDoNotCollide(t *testing.T) {
	records := NewMemoryRecords()
	b := NewBackend(records)
	ctx := context.Background()

	require.NoError(t, b.Push(ctx, "u1", cartFixture()))

	_, err := b.Fetch(ctx, "u1", collection.KindWishlist)
	assert.True(t, IsNotFound(err))
}

func TestBackend_FetchNotFound(t *testing.T) {
	b := NewBackend(NewMemoryRecords())
	_, err := b.Fetch(context.Background(), "nobody", collection.KindCart)

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CodeNotFound, re.Code)
	assert.Equal(t, "nobody", re.Owner)
}

func TestBackend_FetchMalformed(t *testing.T) {
	records := NewMemoryRecords()
	records.Seed(RecordKey{Owner: "u1", Kind: collection.KindCart}, []byte(`{"oops": true}`))
	b := NewBackend(records)

	_, err := b.Fetch(context.Background(), "u1", collection.KindCart)
	assert.True(t, IsMalformed(err))
}

func TestBackend_FetchUnreachable(t *testing.T) {
	records := NewMemoryRecords()
	records.FailFetches(errors.New("dial tcp: connection refused"))
	b := NewBackend(records)

	_, err := b.Fetch(context.Background(), "u1", collection.KindCart)
	assert.Equal(t, CodeUnreachable, CodeOf(err))
}

func TestBackend_PushRejected(t *testing.T) {
	records := NewMemoryRecords()
	records.FailPuts(Rejected(errors.New("quota")))
	b := NewBackend(records)

	err := b.Push(context.Background(), "u1", cartFixture())
	assert.Equal(t, CodeRejected, CodeOf(err))
}

func TestBackend_EmptyOwnerRejected(t *testing.T) {
	b := NewBackend(NewMemoryRecords())

	_, err := b.Fetch(context.Background(), "", collection.KindCart)
	assert.Equal(t, CodeRejected, CodeOf(err))

	err = b.Push(context.Background(), "", cartFixture())
	assert.Equal(t, CodeRejected, CodeOf(err))
}

type slowRecords struct{}

func (slowRecords) GetRecord(ctx context.Context, _ RecordKey) (Record, error) {
	<-ctx.Done()
	return Record{}, ctx.Err()
}

func (slowRecords) PutRecord(ctx context.Context, _ Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestBackend_TimeoutBoundsCalls(t *testing.T) {
	b := NewBackend(slowRecords{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := b.Fetch(context.Background(), "u1", collection.KindCart)
	assert.Equal(t, CodeUnreachable, CodeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	err = b.Push(context.Background(), "u1", cartFixture())
	assert.Equal(t, CodeUnreachable, CodeOf(err))
}
