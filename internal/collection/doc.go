// Package collection defines the value types shared by the cart and wishlist
// engines: products, line entries, and the Collection that holds them.
//
// A Collection is an ordered sequence of entries plus aggregates derived from
// that sequence. Aggregates are never set directly; Recompute is the only
// writer of Count and Total.
//
// # Invariants
//
//   - Item identity (product ID + variant ID) is unique within Entries.
//   - Count == Σ Quantity and Total == Σ Quantity*Price after every change.
//   - UpdatedAt never moves backward (see Touch and MergeTimestamps).
//
// Values returned to callers are always deep copies produced by Clone, so no
// caller can mutate engine-owned state through a shared slice or map.
package collection
