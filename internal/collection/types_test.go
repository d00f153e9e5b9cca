package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "cart", KindCart.String())
	assert.Equal(t, "wishlist", KindWishlist.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("wishlist")
	require.NoError(t, err)
	assert.Equal(t, KindWishlist, k)

	_, err = ParseKind("basket")
	assert.Error(t, err)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "0.00", Money(0).String())
	assert.Equal(t, "12.05", Money(1205).String())
	assert.Equal(t, "-3.50", Money(-350).String())
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, ItemKey("p1"), KeyFor("p1", ""))
	assert.Equal(t, ItemKey("p1#red"), KeyFor("p1", "red"))
	assert.Equal(t, ItemKey("p1#red"), Product{ID: "p1", VariantID: "red"}.Key())
}

func TestClone_IsDeep(t *testing.T) {
	c := New(KindCart)
	c.Entries = append(c.Entries, Entry{
		ID:       "e1",
		Item:     Product{ID: "p1", Price: 100, Attributes: map[string]string{"size": "M"}},
		Quantity: 1,
	})

	cp := c.Clone()
	cp.Entries[0].Quantity = 9
	cp.Entries[0].Item.Attributes["size"] = "XL"

	assert.Equal(t, 1, c.Entries[0].Quantity)
	assert.Equal(t, "M", c.Entries[0].Item.Attributes["size"])
}

func TestClone_NilEntriesBecomeEmpty(t *testing.T) {
	cp := Collection{Kind: KindCart}.Clone()
	assert.NotNil(t, cp.Entries)
	assert.Empty(t, cp.Entries)
}

func TestLookups(t *testing.T) {
	c := New(KindCart)
	c.Entries = []Entry{
		{ID: "e1", Item: Product{ID: "p1"}, Quantity: 1},
		{ID: "e2", Item: Product{ID: "p2", VariantID: "blue"}, Quantity: 1},
	}

	assert.Equal(t, 1, c.IndexOfEntry("e2"))
	assert.Equal(t, -1, c.IndexOfEntry("nope"))
	assert.True(t, c.HasItem(KeyFor("p2", "blue")))
	assert.False(t, c.HasItem(KeyFor("p2", "")))
	assert.True(t, c.HasProduct("p2"))

	e, ok := c.Entry("e1")
	require.True(t, ok)
	assert.Equal(t, "p1", e.Item.ID)
}

func TestRemoveAt_DoesNotAliasOriginal(t *testing.T) {
	c := New(KindCart)
	c.Entries = []Entry{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	orig := c.Entries

	removed := c.RemoveAt(1)

	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, []string{"a", "c"}, ids(c.Entries))
	assert.Equal(t, []string{"a", "b", "c"}, ids(orig))
}

func TestTouch_Monotonic(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(KindCart)

	c.Touch(t0)
	assert.Equal(t, t0, c.UpdatedAt)

	c.Touch(t0.Add(-time.Hour))
	assert.Equal(t, t0, c.UpdatedAt, "touch must never roll back")

	c.Touch(t0.Add(time.Minute))
	assert.Equal(t, t0.Add(time.Minute), c.UpdatedAt)
}

func TestMergeTimestamps(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	remote := New(KindCart)
	remote.UpdatedAt = t0

	remote.MergeTimestamps(t0.Add(time.Hour))
	assert.Equal(t, t0.Add(time.Hour), remote.UpdatedAt)

	remote.MergeTimestamps(t0)
	assert.Equal(t, t0.Add(time.Hour), remote.UpdatedAt)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{"12", 1200},
		{"12.5", 1250},
		{"12.50", 1250},
		{"0.99", 99},
		{".5", 50},
		{"3.", 300},
		{"-1.25", -125},
		{" 7.07 ", 707},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want >= 0 && tt.in == tt.want.String() {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, in := range []string{"", "-", ".", "1.234", "abc", "1,50", "+2", "1.x"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMoney(in)
			assert.Error(t, err)
		})
	}
}
