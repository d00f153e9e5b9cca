package collection

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the two collection types. The integer value is the
// remote record discriminator, so it must stay stable.
type Kind int

const (
	// KindCart is a shopping cart: entries carry quantities.
	KindCart Kind = 1
	// KindWishlist is a wishlist: entries carry an add time, quantity is always 1.
	KindWishlist Kind = 2
)

// String returns the topic/key prefix for the kind ("cart", "wishlist").
func (k Kind) String() string {
	switch k {
	case KindCart:
		return "cart"
	case KindWishlist:
		return "wishlist"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCart || k == KindWishlist
}

// ParseKind maps "cart" or "wishlist" to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cart":
		return KindCart, nil
	case "wishlist":
		return KindWishlist, nil
	default:
		return 0, fmt.Errorf("unknown collection kind %q", s)
	}
}

// Money is an amount in minor currency units (cents).
type Money int64

// String formats m as a decimal with two fraction digits.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseMoney parses a decimal amount such as "12", "12.5" or "-0.99" into
// minor units. More than two fraction digits is an error.
func ParseMoney(s string) (Money, error) {
	str := strings.TrimSpace(s)
	neg := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	whole, frac, _ := strings.Cut(str, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: at most two fraction digits", s)
	}
	frac += strings.Repeat("0", 2-len(frac))

	var units int64
	if whole != "" {
		w, err := strconv.ParseUint(whole, 10, 62)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		units = int64(w) * 100
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	units += int64(f)

	if neg {
		units = -units
	}
	return Money(units), nil
}

// ItemKey identifies an item within a collection: product ID plus variant.
type ItemKey string

// KeyFor builds the item key for a product ID and optional variant ID.
func KeyFor(productID, variantID string) ItemKey {
	if variantID == "" {
		return ItemKey(productID)
	}
	return ItemKey(productID + "#" + variantID)
}

// Product is the item payload stored in an entry. It is a snapshot copied at
// add time, so later catalog changes never alter a stored entry.
type Product struct {
	ID         string            `json:"id" yaml:"id"`
	VariantID  string            `json:"variant_id,omitempty" yaml:"variant_id,omitempty"`
	Name       string            `json:"name" yaml:"name"`
	Price      Money             `json:"price" yaml:"price"`
	Currency   string            `json:"currency,omitempty" yaml:"currency,omitempty"`
	ImageURL   string            `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Key returns the product's item identity.
func (p Product) Key() ItemKey {
	return KeyFor(p.ID, p.VariantID)
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	out := p
	if p.Attributes != nil {
		out.Attributes = maps.Clone(p.Attributes)
	}
	return out
}

// Entry is one line in a collection.
type Entry struct {
	// ID is generated locally and addresses the entry for removal/update.
	ID string `json:"id"`

	// Item is the product snapshot taken when the entry was created.
	Item Product `json:"item"`

	// Quantity is >= 1 for cart entries and always 1 for wishlist entries.
	Quantity int `json:"quantity"`

	// AddedAt is when the entry was created.
	AddedAt time.Time `json:"added_at"`
}

// Subtotal returns Quantity * Price.
func (e Entry) Subtotal() Money {
	return Money(int64(e.Quantity) * int64(e.Item.Price))
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	out := e
	out.Item = e.Item.Clone()
	return out
}

// Collection is a cart or wishlist value.
type Collection struct {
	Kind      Kind      `json:"kind"`
	Entries   []Entry   `json:"entries"`
	Count     int       `json:"count"`
	Total     Money     `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty collection of the given kind.
func New(kind Kind) Collection {
	return Collection{Kind: kind, Entries: []Entry{}}
}

// Clone returns a deep copy of c. Entries is never nil in the copy.
func (c Collection) Clone() Collection {
	out := c
	out.Entries = make([]Entry, len(c.Entries))
	for i, e := range c.Entries {
		out.Entries[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries.
func (c Collection) Len() int {
	return len(c.Entries)
}

// IndexOfEntry returns the index of the entry with the given ID, or -1.
func (c Collection) IndexOfEntry(entryID string) int {
	for i := range c.Entries {
		if c.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}

// IndexOfItem returns the index of the entry holding the item, or -1.
func (c Collection) IndexOfItem(key ItemKey) int {
	for i := range c.Entries {
		if c.Entries[i].Item.Key() == key {
			return i
		}
	}
	return -1
}

// Entry returns a copy of the entry with the given ID.
func (c Collection) Entry(entryID string) (Entry, bool) {
	i := c.IndexOfEntry(entryID)
	if i < 0 {
		return Entry{}, false
	}
	return c.Entries[i].Clone(), true
}

// HasItem reports whether an entry holds the item key.
func (c Collection) HasItem(key ItemKey) bool {
	return c.IndexOfItem(key) >= 0
}

// HasProduct reports whether any entry holds the product, in any variant.
func (c Collection) HasProduct(productID string) bool {
	for i := range c.Entries {
		if c.Entries[i].Item.ID == productID {
			return true
		}
	}
	return false
}

// RemoveAt removes the entry at index i, preserving order.
func (c *Collection) RemoveAt(i int) Entry {
	removed := c.Entries[i]
	c.Entries = append(c.Entries[:i:i], c.Entries[i+1:]...)
	return removed
}
