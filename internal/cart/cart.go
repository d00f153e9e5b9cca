// Package cart implements the shopping cart on top of the collection engine.
//
// Every mutation has a synced form (which pushes the new snapshot when an
// owner is configured) and a Local form that never touches the remote
// backend. Queries likewise come in Get/GetLocal pairs.
package cart

import (
	"context"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
	"github.com/roach88/cartsync/internal/localstore"
	"github.com/roach88/cartsync/internal/notify"
)

// Cart is a quantity-bearing collection of products.
type Cart struct {
	engine *engine.Engine
}

// New creates a cart whose snapshot lives under key in local.
func New(local localstore.Store, key string, opts ...engine.Option) *Cart {
	return &Cart{engine: engine.New(collection.KindCart, key, local, opts...)}
}

// Engine exposes the underlying collection engine.
func (c *Cart) Engine() *engine.Engine { return c.engine }

// Subscribe registers h for cart events of change type t.
func (c *Cart) Subscribe(t engine.ChangeType, h notify.Handler[engine.ChangeEvent]) notify.Token {
	return c.engine.Subscribe(t, h)
}

// Unsubscribe removes a handler registered with Subscribe.
func (c *Cart) Unsubscribe(tok notify.Token) bool {
	return c.engine.Notifier().Unsubscribe(tok)
}

// SetOwner sets the owner identity used for remote sync.
func (c *Cart) SetOwner(owner string) { c.engine.SetOwner(owner) }

// ClearOwner disables remote sync.
func (c *Cart) ClearOwner() { c.engine.ClearOwner() }

// Close drains background pushes, if enabled.
func (c *Cart) Close(ctx context.Context) error { return c.engine.Close(ctx) }

// Add puts qty units of item in the cart. An item already present has its
// quantity increased. A non-positive qty removes the item.
func (c *Cart) Add(ctx context.Context, item collection.Product, qty int) collection.Collection {
	out, _ := c.engine.Mutate(ctx, engine.Synced, addOp(item, qty))
	return out
}

// AddLocal is Add without the remote push.
func (c *Cart) AddLocal(item collection.Product, qty int) collection.Collection {
	out, _ := c.engine.Mutate(context.Background(), engine.LocalOnly, addOp(item, qty))
	return out
}

// AddOne adds a single unit of item.
func (c *Cart) AddOne(ctx context.Context, item collection.Product) collection.Collection {
	return c.Add(ctx, item, 1)
}

// Remove deletes the entry with entryID. An unknown ID leaves the cart
// unchanged: nothing is written, pushed or published.
func (c *Cart) Remove(ctx context.Context, entryID string) collection.Collection {
	out, _ := c.engine.Mutate(ctx, engine.Synced, removeOp(entryID))
	return out
}

// RemoveLocal is Remove without the remote push.
func (c *Cart) RemoveLocal(entryID string) collection.Collection {
	out, _ := c.engine.Mutate(context.Background(), engine.LocalOnly, removeOp(entryID))
	return out
}

// RemoveItem deletes the entry holding the given item. An absent item
// publishes no event.
func (c *Cart) RemoveItem(ctx context.Context, key collection.ItemKey) collection.Collection {
	out, _ := c.engine.Mutate(ctx, engine.Synced, removeItemOp(key))
	return out
}

// RemoveItemLocal is RemoveItem without the remote push.
func (c *Cart) RemoveItemLocal(key collection.ItemKey) collection.Collection {
	out, _ := c.engine.Mutate(context.Background(), engine.LocalOnly, removeItemOp(key))
	return out
}

// UpdateQuantity sets the quantity of an entry. qty <= 0 removes it.
// An unknown ID or an unchanged quantity publishes no event.
func (c *Cart) UpdateQuantity(ctx context.Context, entryID string, qty int) collection.Collection {
	out, _ := c.engine.Mutate(ctx, engine.Synced, updateOp(entryID, qty))
	return out
}

// UpdateQuantityLocal is UpdateQuantity without the remote push.
func (c *Cart) UpdateQuantityLocal(entryID string, qty int) collection.Collection {
	out, _ := c.engine.Mutate(context.Background(), engine.LocalOnly, updateOp(entryID, qty))
	return out
}

// Clear empties the cart. It always publishes cart:cleared, even when the
// cart was already empty.
func (c *Cart) Clear(ctx context.Context) collection.Collection {
	out, _ := c.engine.Mutate(ctx, engine.Synced, clearOp)
	return out
}

// ClearLocal is Clear without the remote push.
func (c *Cart) ClearLocal() collection.Collection {
	out, _ := c.engine.Mutate(context.Background(), engine.LocalOnly, clearOp)
	return out
}

// Get returns the cart, preferring the remote snapshot when an owner is set.
func (c *Cart) Get(ctx context.Context) collection.Collection {
	return c.engine.Get(ctx)
}

// GetLocal returns the cart from local state only.
func (c *Cart) GetLocal() collection.Collection {
	return c.engine.GetLocal()
}

// Count returns the number of units in the cart.
func (c *Cart) Count(ctx context.Context) int { return c.Get(ctx).Count }

// CountLocal is Count from local state only.
func (c *Cart) CountLocal() int { return c.GetLocal().Count }

// Total returns Σ quantity × price.
func (c *Cart) Total(ctx context.Context) collection.Money { return c.Get(ctx).Total }

// TotalLocal is Total from local state only.
func (c *Cart) TotalLocal() collection.Money { return c.GetLocal().Total }

// HasItem reports whether the item is in the cart.
func (c *Cart) HasItem(ctx context.Context, key collection.ItemKey) bool {
	return c.Get(ctx).HasItem(key)
}

// HasItemLocal is HasItem from local state only.
func (c *Cart) HasItemLocal(key collection.ItemKey) bool {
	return c.GetLocal().HasItem(key)
}

// Pull replaces local state with the remote snapshot.
func (c *Cart) Pull(ctx context.Context) (collection.Collection, error) {
	return c.engine.Pull(ctx)
}

// Push writes local state to the remote backend.
func (c *Cart) Push(ctx context.Context) error {
	return c.engine.Push(ctx)
}
