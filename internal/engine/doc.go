// Package engine implements the collection engine shared by the cart and
// wishlist: canonical state, the mutation pipeline, remote reconciliation,
// and change notification.
//
// ARCHITECTURE:
//
// Mutation pipeline (one critical section per call):
//  1. Read the local store snapshot (fall back to the in-memory value when
//     the store is unavailable).
//  2. Apply the Op to a private copy. An Op that changes nothing ends the
//     call: no write, no event.
//  3. Recompute aggregates, advance UpdatedAt, write the local store.
//  4. Enqueue exactly one ChangeEvent in the outbox.
//
// After the section is released:
//  5. Push the snapshot to the remote backend if an owner is set (inline,
//     or via the background worker). Failures are logged, never returned.
//  6. Drain the outbox, publishing events in commit order.
//
// Reads:
//   - GetLocal never touches the network.
//   - Get pulls the remote snapshot first when an owner is set; the remote
//     value overwrites local state (UpdatedAt never moves backward). Any
//     remote failure falls back to local state.
//   - Pull and Push force a sync and report the remote error.
//
// The engine assumes a single logical owner per collection key. Concurrent
// writers in different processes sharing an owner key get last-write-wins
// on the remote record.
package engine
