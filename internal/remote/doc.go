// Package remote is the boundary to the remote collection backend: a generic
// record API that stores one payload per (owner key, kind) pair.
//
// RecordStore is the narrow capability each concrete backend implements
// (Firestore, Postgres, HTTP, in-memory). Backend wraps a RecordStore and is
// what the engines talk to. It owns three concerns so no backend-specific
// shape leaks into the engine:
//
//   - Normalization: payloads stored as {"entries": [...]} or as a bare
//     [...] entry sequence both decode to one collection.Collection.
//   - Classification: every failure is returned as *Error with a Code
//     (unreachable, rejected, malformed, not found).
//   - Bounding: each call runs under the configured timeout.
package remote
