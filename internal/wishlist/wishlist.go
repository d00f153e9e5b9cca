// Package wishlist implements the wishlist on top of the collection engine.
//
// A wishlist holds each item at most once, always with quantity 1. Besides
// the membership operations it can be reordered; a reorder is persisted like
// any mutation and publishes a single wishlist:reordered event.
package wishlist

import (
	"context"
	"sync"

	"golang.org/x/text/language"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
	"github.com/roach88/cartsync/internal/localstore"
	"github.com/roach88/cartsync/internal/notify"
)

// Wishlist is a set-like collection of products.
type Wishlist struct {
	engine *engine.Engine

	mu     sync.RWMutex
	locale language.Tag
}

// New creates a wishlist whose snapshot lives under key in local. Names are
// collated with language.Und until SetLocale is called.
func New(local localstore.Store, key string, opts ...engine.Option) *Wishlist {
	return &Wishlist{
		engine: engine.New(collection.KindWishlist, key, local, opts...),
		locale: language.Und,
	}
}

// Engine exposes the underlying collection engine.
func (w *Wishlist) Engine() *engine.Engine { return w.engine }

// SetLocale sets the collation locale used by SortByName.
func (w *Wishlist) SetLocale(tag language.Tag) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locale = tag
}

// Locale returns the collation locale.
func (w *Wishlist) Locale() language.Tag {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.locale
}

// Subscribe registers h for wishlist events of change type t.
func (w *Wishlist) Subscribe(t engine.ChangeType, h notify.Handler[engine.ChangeEvent]) notify.Token {
	return w.engine.Subscribe(t, h)
}

// Unsubscribe removes a handler registered with Subscribe.
func (w *Wishlist) Unsubscribe(tok notify.Token) bool {
	return w.engine.Notifier().Unsubscribe(tok)
}

// SetOwner sets the owner identity used for remote sync.
func (w *Wishlist) SetOwner(owner string) { w.engine.SetOwner(owner) }

// ClearOwner disables remote sync.
func (w *Wishlist) ClearOwner() { w.engine.ClearOwner() }

// Close drains background pushes, if enabled.
func (w *Wishlist) Close(ctx context.Context) error { return w.engine.Close(ctx) }

// Add puts item on the wishlist. An item already present is left as is
// and no event is published.
func (w *Wishlist) Add(ctx context.Context, item collection.Product) collection.Collection {
	out, _ := w.engine.Mutate(ctx, engine.Synced, addOp(item))
	return out
}

// AddLocal is Add without the remote push.
func (w *Wishlist) AddLocal(item collection.Product) collection.Collection {
	out, _ := w.engine.Mutate(context.Background(), engine.LocalOnly, addOp(item))
	return out
}

// Remove deletes the entry with entryID. An unknown ID publishes no event.
func (w *Wishlist) Remove(ctx context.Context, entryID string) collection.Collection {
	out, _ := w.engine.Mutate(ctx, engine.Synced, removeOp(entryID))
	return out
}

// RemoveLocal is Remove without the remote push.
func (w *Wishlist) RemoveLocal(entryID string) collection.Collection {
	out, _ := w.engine.Mutate(context.Background(), engine.LocalOnly, removeOp(entryID))
	return out
}

// RemoveProduct deletes the entry holding the given item. An absent item
// publishes no event.
func (w *Wishlist) RemoveProduct(ctx context.Context, key collection.ItemKey) collection.Collection {
	out, _ := w.engine.Mutate(ctx, engine.Synced, removeItemOp(key))
	return out
}

// RemoveProductLocal is RemoveProduct without the remote push.
func (w *Wishlist) RemoveProductLocal(key collection.ItemKey) collection.Collection {
	out, _ := w.engine.Mutate(context.Background(), engine.LocalOnly, removeItemOp(key))
	return out
}

// Toggle removes item if present and adds it otherwise. It reports whether
// the item is on the wishlist afterwards. The membership check and the
// mutation see the same snapshot.
func (w *Wishlist) Toggle(ctx context.Context, item collection.Product) (collection.Collection, bool) {
	return w.toggle(ctx, engine.Synced, item)
}

// ToggleLocal is Toggle without the remote push.
func (w *Wishlist) ToggleLocal(item collection.Product) (collection.Collection, bool) {
	return w.toggle(context.Background(), engine.LocalOnly, item)
}

func (w *Wishlist) toggle(ctx context.Context, mode engine.Mode, item collection.Product) (collection.Collection, bool) {
	var present bool
	out, _ := w.engine.Mutate(ctx, mode, toggleOp(item, &present))
	return out, present
}

// Clear empties the wishlist. It always publishes wishlist:cleared.
func (w *Wishlist) Clear(ctx context.Context) collection.Collection {
	out, _ := w.engine.Mutate(ctx, engine.Synced, clearOp)
	return out
}

// ClearLocal is Clear without the remote push.
func (w *Wishlist) ClearLocal() collection.Collection {
	out, _ := w.engine.Mutate(context.Background(), engine.LocalOnly, clearOp)
	return out
}

// SortByName orders entries by product name under the wishlist locale.
func (w *Wishlist) SortByName(ctx context.Context, ascending bool) collection.Collection {
	return w.SortBy(ctx, collection.ByName(w.Locale(), ascending))
}

// SortByPrice orders entries by unit price.
func (w *Wishlist) SortByPrice(ctx context.Context, ascending bool) collection.Collection {
	return w.SortBy(ctx, collection.ByPrice(ascending))
}

// SortByRecency orders entries by when they were added.
func (w *Wishlist) SortByRecency(ctx context.Context, newestFirst bool) collection.Collection {
	return w.SortBy(ctx, collection.ByRecency(newestFirst))
}

// SortBy orders entries with a caller-supplied comparison. Ties keep their
// current relative order. Sorting an already ordered wishlist is a no-op.
func (w *Wishlist) SortBy(ctx context.Context, less collection.Less) collection.Collection {
	out, _ := w.engine.Mutate(ctx, engine.Synced, sortOp(less))
	return out
}

// SortByLocal is SortBy without the remote push.
func (w *Wishlist) SortByLocal(less collection.Less) collection.Collection {
	out, _ := w.engine.Mutate(context.Background(), engine.LocalOnly, sortOp(less))
	return out
}

// Get returns the wishlist, preferring the remote snapshot when an owner is
// set.
func (w *Wishlist) Get(ctx context.Context) collection.Collection {
	return w.engine.Get(ctx)
}

// GetLocal returns the wishlist from local state only.
func (w *Wishlist) GetLocal() collection.Collection {
	return w.engine.GetLocal()
}

// Count returns the number of entries.
func (w *Wishlist) Count(ctx context.Context) int { return w.Get(ctx).Count }

// CountLocal is Count from local state only.
func (w *Wishlist) CountLocal() int { return w.GetLocal().Count }

// Has reports whether any variant of the product is on the wishlist.
func (w *Wishlist) Has(ctx context.Context, productID string) bool {
	return w.Get(ctx).HasProduct(productID)
}

// HasLocal is Has from local state only.
func (w *Wishlist) HasLocal(productID string) bool {
	return w.GetLocal().HasProduct(productID)
}

// HasItem reports whether the exact item (product and variant) is present.
func (w *Wishlist) HasItem(ctx context.Context, key collection.ItemKey) bool {
	return w.Get(ctx).HasItem(key)
}

// HasItemLocal is HasItem from local state only.
func (w *Wishlist) HasItemLocal(key collection.ItemKey) bool {
	return w.GetLocal().HasItem(key)
}

// Pull replaces local state with the remote snapshot.
func (w *Wishlist) Pull(ctx context.Context) (collection.Collection, error) {
	return w.engine.Pull(ctx)
}

// Push writes local state to the remote backend.
func (w *Wishlist) Push(ctx context.Context) error {
	return w.engine.Push(ctx)
}
