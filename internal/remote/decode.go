package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cartsync/internal/collection"
)

var errEmptyPayload = errors.New("empty payload")

// DecodeSnapshot normalizes a stored payload into a collection of kind.
//
// Two shapes are accepted:
//
//	{"entries": [...], "updated_at": "...", ...}   wrapped snapshot
//	[...]                                          bare entry sequence
//
// A bare sequence carries no timestamp, so fallback (usually the record's
// own UpdatedAt) is used. Entries may lack IDs; the engine assigns them.
// A payload whose entries are all unusable is an error, as is any other
// shape.
func DecodeSnapshot(payload []byte, kind collection.Kind, fallback time.Time) (collection.Collection, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return collection.Collection{}, errEmptyPayload
	}

	var c collection.Collection
	switch trimmed[0] {
	case '[':
		var entries []collection.Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return collection.Collection{}, fmt.Errorf("decode entry sequence: %w", err)
		}
		c = collection.Collection{Entries: entries}

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return collection.Collection{}, fmt.Errorf("decode snapshot object: %w", err)
		}
		if _, ok := fields["entries"]; !ok {
			return collection.Collection{}, errors.New("decode snapshot object: missing entries")
		}
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return collection.Collection{}, fmt.Errorf("decode snapshot object: %w", err)
		}
		if c.Kind != 0 && c.Kind != kind {
			return collection.Collection{}, fmt.Errorf("decode snapshot object: kind mismatch (got %s)", c.Kind)
		}

	default:
		return collection.Collection{}, fmt.Errorf("unrecognized payload shape starting with %q", trimmed[0])
	}

	raw := len(c.Entries)
	c.Normalize(kind)
	if raw > 0 && len(c.Entries) == 0 {
		return collection.Collection{}, fmt.Errorf("none of %d entries is usable", raw)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = fallback
	}
	return c, nil
}
