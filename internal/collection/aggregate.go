package collection

import "time"

// Recompute sets Count and Total from Entries. It is the only writer of the
// aggregate fields.
func (c *Collection) Recompute() {
	count := 0
	var total Money
	for _, e := range c.Entries {
		count += e.Quantity
		total += e.Subtotal()
	}
	c.Count = count
	c.Total = total
}

// Touch advances UpdatedAt to now, or leaves it untouched if now is not after
// the current value. UpdatedAt is monotonic.
func (c *Collection) Touch(now time.Time) {
	if now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
}

// MergeTimestamps keeps the later of the two UpdatedAt values on c. Used when
// a remote snapshot replaces local state so the local clock is never rolled
// back.
func (c *Collection) MergeTimestamps(previous time.Time) {
	if previous.After(c.UpdatedAt) {
		c.UpdatedAt = previous
	}
}

// Normalize repairs a decoded collection: it forces the kind, clamps
// wishlist quantities to 1, drops entries with no product ID or a
// non-positive quantity, merges duplicate item keys into the first
// occurrence, and recomputes aggregates. Entries without an ID are kept;
// AssignIDs fills them in. Decoded data from any source goes through
// Normalize before it becomes engine state.
func (c *Collection) Normalize(kind Kind) {
	c.Kind = kind
	seen := make(map[ItemKey]int, len(c.Entries))
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if kind == KindWishlist {
			e.Quantity = 1
		}
		if e.Item.ID == "" || e.Quantity <= 0 {
			continue
		}
		k := e.Item.Key()
		if i, ok := seen[k]; ok {
			if kind == KindCart {
				out[i].Quantity += e.Quantity
			}
			if out[i].ID == "" {
				out[i].ID = e.ID
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, e)
	}
	c.Entries = out
	c.Recompute()
}

// AssignIDs gives every entry without an ID one. An entry takes the ID of
// the entry in prev holding the same item when that ID is not already in
// use, and its AddedAt too if its own is zero; otherwise it draws a fresh
// ID from newID.
func (c *Collection) AssignIDs(prev Collection, newID func() string) {
	used := make(map[string]bool, len(c.Entries))
	for _, e := range c.Entries {
		if e.ID != "" {
			used[e.ID] = true
		}
	}
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.ID != "" {
			continue
		}
		if j := prev.IndexOfItem(e.Item.Key()); j >= 0 && prev.Entries[j].ID != "" && !used[prev.Entries[j].ID] {
			e.ID = prev.Entries[j].ID
			if e.AddedAt.IsZero() {
				e.AddedAt = prev.Entries[j].AddedAt
			}
		} else {
			e.ID = newID()
		}
		used[e.ID] = true
	}
}
