package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("cart")
	assert.Equal(t, "cart-1", g.NewID())
	assert.Equal(t, "cart-2", g.NewID())
	assert.Equal(t, "cart-3", g.NewID())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "entry-1", g.NewID())
}

func TestSequentialIDs_Reset(t *testing.T) {
	g := NewSequentialIDs("w")
	g.NewID()
	g.NewID()
	g.Reset()
	assert.Equal(t, "w-1", g.NewID())
}
