// Package localstore provides the durable, synchronous snapshot store that
// the collection engines treat as the source of truth.
//
// A Store holds one serialized snapshot per key. Its contract is
// deliberately forgiving:
//
//   - Read returns (nil, false) when the key is absent OR the medium is
//     unavailable. Callers cannot and need not tell the two apart.
//   - Write and Erase return false on failure. They never panic and never
//     return an error, so an engine can degrade to in-memory state for the
//     remainder of a call.
//   - Side effects are confined to the named key.
//
// Keys are built with Namespace so two tenants sharing one database never
// collide.
//
// # SQLite configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// The schema is embedded (schema.sql) and migrated via PRAGMA user_version.
package localstore
