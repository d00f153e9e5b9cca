// Package harness runs cart and wishlist scenarios described in YAML and
// checks the change events they produce.
//
// # Scenario Format
//
//	name: cart_two_devices
//	description: "A cart written on one device appears on another"
//	owner: user-1            # optional; enables the shared in-memory remote
//	locale: de               # optional; wishlist name collation
//	steps:
//	  - op: cart.add
//	    item: { id: sku-1, name: Widget, price: 1000 }
//	    qty: 2
//	  - op: cart.get
//	    device: phone
//	assertions:
//	  - type: event_count
//	    topic: cart:item:added
//	    count: 1
//	  - type: event_order
//	    topics: [cart:item:added, cart:synced]
//	  - type: final_state
//	    device: phone
//	    kind: cart
//	    expect: { count: 2, total: 2000, items: [sku-1] }
//
// Every step runs on a device ("default" unless named). Devices have their
// own local store and engines; they share the remote record store, the
// entry ID generator and the wall clock. The pseudo-device "remote" can be
// named in final_state assertions to inspect the stored remote snapshot.
//
// # Operations
//
//   - cart.add, cart.remove, cart.remove_item, cart.update, cart.clear
//   - wishlist.add, wishlist.remove, wishlist.remove_product, wishlist.toggle,
//     wishlist.sort, wishlist.clear
//   - cart.get, cart.pull, cart.push and the wishlist equivalents
//   - remote.fail, remote.recover
//
// Mutating steps accept local: true to skip the remote leg.
//
// # Assertion Types
//
//   - event_count: a topic appears exactly N times
//   - event_order: topics appear in the given order (gaps allowed)
//   - final_state: a device's collection has the expected aggregates and items
//
// # Deterministic Testing
//
// Entry IDs are "entry-1", "entry-2", ... in creation order and the clock
// starts at testutil.Epoch stepping one second per read, so traces are
// stable enough for golden comparison (see RunWithGolden).
package harness
