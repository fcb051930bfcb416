// Package store defines the backend contract of dEntity.
//
// A backend keeps a working set of entities (see package entity) in memory and
// synchronizes changes to some storage. Changes are submitted as a ChangeSet through
// IBackend.Update; the completion callback fires exactly once after the change became
// visible to subsequent reads (or with the error that stopped it).
//
// Key Components:
//
//   - IBackend: lookups, queries (see package query), outsourced string I/O and the update funnel.
//
//   - IDurableBackend: a backend that owns the complete set of entities and persists it.
//     It loads per type, checks the stored version and can be locked on shutdown.
//
//   - IPartialBackend: a backend that only caches entities it was told about and forwards
//     its changes to a remote authority, which pushes updates and deletions back.
//
//   - Error System: every error returned by a backend is a *Error with a RetCode.
//     errors.Is compares by code, so callers can test against the Err* sentinels.
//
// Implementations:
//
//	- File Store (fstore): one file per entity, atomic replace on write, versioned layout.
//	- Memory Store (mstore): no durability, used in tests.
//	- Remote Store (rstore): partial cache kept in sync with a dEntity server.
//
// All implementations share the index and query logic of package cache.
package store
