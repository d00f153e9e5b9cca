package wishlist

import (
	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
)

func newEntry(tx *engine.Tx, item collection.Product) collection.Entry {
	return collection.Entry{
		ID:       tx.NewEntryID(),
		Item:     item.Clone(),
		Quantity: 1,
		AddedAt:  tx.Now,
	}
}

func addOp(item collection.Product) engine.Op {
	return func(tx *engine.Tx) (engine.Change, bool) {
		if item.ID == "" || tx.Collection.HasItem(item.Key()) {
			return engine.Change{}, false
		}
		entry := newEntry(tx, item)
		tx.Collection.Entries = append(tx.Collection.Entries, entry)
		return engine.Added(entry), true
	}
}

func removeOp(entryID string) engine.Op {
	return func(tx *engine.Tx) (engine.Change, bool) {
		i := tx.Collection.IndexOfEntry(entryID)
		if i < 0 {
			return engine.Change{}, false
		}
		return engine.Removed(tx.Collection.RemoveAt(i)), true
	}
}

func removeItemOp(key collection.ItemKey) engine.Op {
	return func(tx *engine.Tx) (engine.Change, bool) {
		i := tx.Collection.IndexOfItem(key)
		if i < 0 {
			return engine.Change{}, false
		}
		return engine.Removed(tx.Collection.RemoveAt(i)), true
	}
}

// toggleOp records in present whether item is on the wishlist afterwards.
func toggleOp(item collection.Product, present *bool) engine.Op {
	return func(tx *engine.Tx) (engine.Change, bool) {
		if item.ID == "" {
			return engine.Change{}, false
		}
		c := tx.Collection
		if i := c.IndexOfItem(item.Key()); i >= 0 {
			*present = false
			return engine.Removed(c.RemoveAt(i)), true
		}
		entry := newEntry(tx, item)
		c.Entries = append(c.Entries, entry)
		*present = true
		return engine.Added(entry), true
	}
}

func clearOp(tx *engine.Tx) (engine.Change, bool) {
	tx.Collection.Entries = []collection.Entry{}
	return engine.Cleared(), true
}

func sortOp(less collection.Less) engine.Op {
	return func(tx *engine.Tx) (engine.Change, bool) {
		c := tx.Collection
		before := make([]string, len(c.Entries))
		for i, e := range c.Entries {
			before[i] = e.ID
		}
		c.SortStable(less)
		for i, e := range c.Entries {
			if e.ID != before[i] {
				return engine.Reordered(), true
			}
		}
		return engine.Change{}, false
	}
}
