package engine

import (
	"github.com/google/uuid"
)

// IDGenerator produces entry identifiers. Identifiers must never repeat
// within an engine's lifetime.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 entry identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so entry IDs sort
// by creation time, which helps when reading stored snapshots.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
