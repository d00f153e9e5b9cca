package firestorerecords

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/remote"
)

func TestDocID(t *testing.T) {
	assert.Equal(t, "u1_cart", DocID(remote.RecordKey{Owner: "u1", Kind: collection.KindCart}))
	assert.Equal(t, "u1_wishlist", DocID(remote.RecordKey{Owner: "u1", Kind: collection.KindWishlist}))
	assert.Equal(t, "tenant%2Fu1_cart", DocID(remote.RecordKey{Owner: "tenant/u1", Kind: collection.KindCart}))
}

func TestNew_DefaultCollection(t *testing.T) {
	assert.Equal(t, DefaultCollection, New(nil, "  ").collection)
	assert.Equal(t, "carts", New(nil, "carts").collection)
}

func TestNilClient(t *testing.T) {
	var s *Store
	_, err := s.GetRecord(context.Background(), remote.RecordKey{Owner: "u1", Kind: collection.KindCart})
	assert.Error(t, err)
	assert.Error(t, New(nil, "").PutRecord(context.Background(), remote.Record{}))
	assert.NoError(t, s.Close())
}

type failingRecords struct{ err error }

func (f failingRecords) GetRecord(context.Context, remote.RecordKey) (remote.Record, error) {
	return remote.Record{}, f.err
}

func (f failingRecords) PutRecord(context.Context, remote.Record) error { return f.err }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want remote.ErrorCode
	}{
		{"not found", status.Error(codes.NotFound, "no doc"), remote.CodeNotFound},
		{"permission", status.Error(codes.PermissionDenied, "denied"), remote.CodeRejected},
		{"unauthenticated", status.Error(codes.Unauthenticated, "who"), remote.CodeRejected},
		{"invalid", status.Error(codes.InvalidArgument, "bad"), remote.CodeRejected},
		{"unavailable", status.Error(codes.Unavailable, "down"), remote.CodeUnreachable},
		{"plain", errors.New("eof"), remote.CodeUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := remote.NewBackend(failingRecords{err: classify(tt.err)})
			_, err := b.Fetch(context.Background(), "u1", collection.KindCart)
			assert.Equal(t, tt.want, remote.CodeOf(err))
		})
	}
}

func TestRecordFromData(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec, err := recordFromData(map[string]any{
		"ownerKey":  "u1",
		"kind":      int64(2),
		"payload":   `{"entries":[]}`,
		"updatedAt": at,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.Key.Owner)
	assert.Equal(t, collection.KindWishlist, rec.Key.Kind)
	assert.Equal(t, `{"entries":[]}`, string(rec.Payload))
	assert.Equal(t, at, rec.UpdatedAt)

	rec, err = recordFromData(map[string]any{"payload": []byte(`[]`)})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(rec.Payload))

	rec, err = recordFromData(nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Payload)

	_, err = recordFromData(map[string]any{"payload": 42})
	assert.Error(t, err)
}

func TestDocFromRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	doc := docFromRecord(remote.Record{
		Key:       remote.RecordKey{Owner: "u1", Kind: collection.KindCart},
		Payload:   []byte(`[]`),
		UpdatedAt: at,
	})

	assert.Equal(t, recordDoc{Owner: "u1", Kind: 1, Payload: "[]", UpdatedAt: at.UTC()}, doc)
}

// TestStore_Emulator runs against a Firestore emulator when one is
// configured, e.g. FIRESTORE_EMULATOR_HOST=localhost:8080.
func TestStore_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()

	client, err := Dial(ctx, "cartsync-test", "")
	require.NoError(t, err)
	s := New(client, "records_"+time.Now().Format("150405.000000"))
	defer s.Close()

	key := remote.RecordKey{Owner: "emulator-user", Kind: collection.KindCart}
	_, err = s.GetRecord(ctx, key)
	assert.ErrorIs(t, err, remote.ErrRecordNotFound)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutRecord(ctx, remote.Record{Key: key, Payload: []byte(`{"entries":[]}`), UpdatedAt: at}))

	rec, err := s.GetRecord(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, rec.Key)
	assert.Equal(t, `{"entries":[]}`, string(rec.Payload))
	assert.True(t, at.Equal(rec.UpdatedAt))

	b := remote.NewBackend(s)
	c, err := b.Fetch(ctx, key.Owner, key.Kind)
	require.NoError(t, err)
	assert.Empty(t, c.Entries)
}
