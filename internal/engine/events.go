package engine

import (
	"github.com/roach88/cartsync/internal/collection"
)

// ChangeType names the nature of a change. Combined with the collection
// kind it forms the topic, e.g. "cart:item:added".
type ChangeType string

const (
	ChangeAdded     ChangeType = "item:added"
	ChangeRemoved   ChangeType = "item:removed"
	ChangeUpdated   ChangeType = "item:updated"
	ChangeCleared   ChangeType = "cleared"
	ChangeReordered ChangeType = "reordered"

	// ChangeSynced is published when a remote snapshot replaces local state.
	ChangeSynced ChangeType = "synced"
)

// Topic returns the notifier topic for a kind and change type.
func Topic(kind collection.Kind, t ChangeType) string {
	return kind.String() + ":" + string(t)
}

// ChangeEvent is the payload delivered for every logical change.
type ChangeEvent struct {
	Topic string
	Type  ChangeType
	Kind  collection.Kind

	// Seq orders events of one engine; it increases by one per event.
	Seq int64

	// EntryID identifies the affected entry (empty for cleared, reordered
	// and synced events).
	EntryID string

	// Entry is a copy of the affected entry: its new state for added and
	// updated, its last state for removed.
	Entry *collection.Entry

	// Collection is the full collection after the change.
	Collection collection.Collection
}

// Change describes what an Op did. The engine turns it into a ChangeEvent.
type Change struct {
	Type  ChangeType
	Entry *collection.Entry
}

// Added reports an added (or incremented) entry.
func Added(e collection.Entry) Change {
	return Change{Type: ChangeAdded, Entry: entryRef(e)}
}

// Removed reports a removed entry.
func Removed(e collection.Entry) Change {
	return Change{Type: ChangeRemoved, Entry: entryRef(e)}
}

// Updated reports an entry whose quantity changed.
func Updated(e collection.Entry) Change {
	return Change{Type: ChangeUpdated, Entry: entryRef(e)}
}

// Cleared reports that every entry was removed.
func Cleared() Change {
	return Change{Type: ChangeCleared}
}

// Reordered reports that entries changed order but not membership.
func Reordered() Change {
	return Change{Type: ChangeReordered}
}

func entryRef(e collection.Entry) *collection.Entry {
	c := e.Clone()
	return &c
}
