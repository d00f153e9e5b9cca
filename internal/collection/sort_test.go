package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func sortFixture() Collection {
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := New(KindWishlist)
	c.Entries = []Entry{
		{ID: "b", Item: Product{ID: "p2", Name: "banana", Price: 300}, Quantity: 1, AddedAt: t0.Add(2 * time.Hour)},
		{ID: "a", Item: Product{ID: "p1", Name: "Äpfel", Price: 100}, Quantity: 1, AddedAt: t0},
		{ID: "c", Item: Product{ID: "p3", Name: "cherry", Price: 100}, Quantity: 1, AddedAt: t0.Add(time.Hour)},
	}
	return c
}

func TestSort_ByNameUsesCollation(t *testing.T) {
	c := sortFixture()
	c.SortStable(ByName(language.German, true))
	// Byte order would put "banana" before "Äpfel".
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Entries))

	c.SortStable(ByName(language.German, false))
	assert.Equal(t, []string{"c", "b", "a"}, ids(c.Entries))
}

func TestSort_ByPriceIsStable(t *testing.T) {
	c := sortFixture()
	c.SortStable(ByPrice(true))
	assert.Equal(t, []string{"a", "c", "b"}, ids(c.Entries), "equal prices keep prior order")

	c.SortStable(ByPrice(false))
	assert.Equal(t, []string{"b", "a", "c"}, ids(c.Entries))
}

func TestSort_ByRecency(t *testing.T) {
	c := sortFixture()
	c.SortStable(ByRecency(true))
	assert.Equal(t, []string{"b", "c", "a"}, ids(c.Entries))

	c.SortStable(ByRecency(false))
	assert.Equal(t, []string{"a", "c", "b"}, ids(c.Entries))
}
