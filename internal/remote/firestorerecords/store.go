// Package firestorerecords stores remote collection records in Cloud
// Firestore.
//
// Each record is one document in a single collection. The document ID is
// derived from the owner and kind; the snapshot payload is kept verbatim as
// a string field so that any client writing the generic record shape can be
// read back.
package firestorerecords

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/remote"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "collection_records"

// Store implements remote.RecordStore on Firestore.
type Store struct {
	client     *firestore.Client
	collection string
}

// New wraps an existing client. An empty collection name selects
// DefaultCollection.
func New(client *firestore.Client, collection string) *Store {
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, collection: collection}
}

// Dial creates a Firestore client for project. credentialsFile may be empty,
// in which case Application Default Credentials (or the emulator named by
// FIRESTORE_EMULATOR_HOST) are used.
func Dial(ctx context.Context, project, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestorerecords: create client (project=%s): %w", project, err)
	}
	return client, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) doc(key remote.RecordKey) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(DocID(key))
}

// GetRecord implements remote.RecordStore.
func (s *Store) GetRecord(ctx context.Context, key remote.RecordKey) (remote.Record, error) {
	if s == nil || s.client == nil {
		return remote.Record{}, errors.New("firestorerecords: client is nil")
	}

	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		return remote.Record{}, classify(err)
	}

	rec, err := recordFromData(snap.Data())
	if err != nil {
		return remote.Record{}, err
	}
	rec.Key = key
	return rec, nil
}

// PutRecord implements remote.RecordStore. The document is overwritten as a
// whole.
func (s *Store) PutRecord(ctx context.Context, rec remote.Record) error {
	if s == nil || s.client == nil {
		return errors.New("firestorerecords: client is nil")
	}

	if _, err := s.doc(rec.Key).Set(ctx, docFromRecord(rec)); err != nil {
		return classify(err)
	}
	return nil
}

// DocID returns the document ID for key. Owners are path-escaped because
// Firestore document IDs cannot contain '/'.
func DocID(key remote.RecordKey) string {
	return url.PathEscape(key.Owner) + "_" + key.Kind.String()
}

type recordDoc struct {
	Owner     string    `firestore:"ownerKey"`
	Kind      int       `firestore:"kind"`
	Payload   string    `firestore:"payload"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func docFromRecord(rec remote.Record) recordDoc {
	return recordDoc{
		Owner:     rec.Key.Owner,
		Kind:      int(rec.Key.Kind),
		Payload:   string(rec.Payload),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
}

// recordFromData parses raw document data. The payload may have been
// written as a string or as bytes; a missing payload yields an empty one,
// which the backend reports as malformed.
func recordFromData(raw map[string]any) (remote.Record, error) {
	var rec remote.Record
	if raw == nil {
		return rec, nil
	}

	switch p := raw["payload"].(type) {
	case string:
		rec.Payload = []byte(p)
	case []byte:
		rec.Payload = append([]byte(nil), p...)
	case nil:
	default:
		return rec, fmt.Errorf("firestorerecords: unsupported payload type %T", p)
	}

	if t, ok := raw["updatedAt"].(time.Time); ok {
		rec.UpdatedAt = t.UTC()
	}
	if owner, ok := raw["ownerKey"].(string); ok {
		rec.Key.Owner = owner
	}
	if k, ok := raw["kind"].(int64); ok {
		rec.Key.Kind = collection.Kind(k)
	}
	return rec, nil
}

// classify maps gRPC status codes onto the remote error taxonomy.
func classify(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("firestorerecords: %w", remote.ErrRecordNotFound)
	case codes.PermissionDenied, codes.Unauthenticated, codes.InvalidArgument, codes.FailedPrecondition:
		return remote.Rejected(err)
	default:
		return err
	}
}
