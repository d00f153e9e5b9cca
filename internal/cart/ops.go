package cart

import (
	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
)

func addOp(item collection.Product, qty int) engine.Op {
	if qty <= 0 {
		return removeItemOp(item.Key())
	}
	return func(tx *engine.Tx) (engine.Change, bool) {
		if item.ID == "" {
			return engine.Change{}, false
		}
		c := tx.Collection
		if i := c.IndexOfItem(item.Key()); i >= 0 {
			c.Entries[i].Quantity += qty
			return engine.Added(c.Entries[i]), true
		}
		entry := collection.Entry{
			ID:       tx.NewEntryID(),
			Item:     item.Clone(),
			Quantity: qty,
			AddedAt:  tx.Now,
		}
		c.Entries = append(c.Entries, entry)
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

func updateOp(entryID string, qty int) engine.Op {
	if qty <= 0 {
		return removeOp(entryID)
	}
	return func(tx *engine.Tx) (engine.Change, bool) {
		c := tx.Collection
		i := c.IndexOfEntry(entryID)
		if i < 0 || c.Entries[i].Quantity == qty {
			return engine.Change{}, false
		}
		c.Entries[i].Quantity = qty
		return engine.Updated(c.Entries[i]), true
	}
}

func clearOp(tx *engine.Tx) (engine.Change, bool) {
	tx.Collection.Entries = []collection.Entry{}
	return engine.Cleared(), true
}
