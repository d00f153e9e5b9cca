package collection

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Less orders two entries. It must be a strict weak ordering.
type Less func(a, b Entry) bool

// SortStable reorders entries by less, keeping equal entries in their
// current order.
func (c *Collection) SortStable(less Less) {
	slices.SortStableFunc(c.Entries, func(a, b Entry) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
}

// ByName orders entries by product name using the collation rules of tag.
// The returned Less holds a collator and is not safe for concurrent use.
func ByName(tag language.Tag, ascending bool) Less {
	col := collate.New(tag, collate.IgnoreCase)
	return func(a, b Entry) bool {
		r := col.CompareString(a.Item.Name, b.Item.Name)
		if ascending {
			return r < 0
		}
		return r > 0
	}
}

// ByPrice orders entries by unit price.
func ByPrice(ascending bool) Less {
	return func(a, b Entry) bool {
		r := cmp.Compare(a.Item.Price, b.Item.Price)
		if ascending {
			return r < 0
		}
		return r > 0
	}
}

// ByRecency orders entries by AddedAt; newestFirst puts the latest first.
func ByRecency(newestFirst bool) Less {
	return func(a, b Entry) bool {
		if newestFirst {
			return a.AddedAt.After(b.AddedAt)
		}
		return a.AddedAt.Before(b.AddedAt)
	}
}
