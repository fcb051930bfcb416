// Package mstore implements store.IBackend without any durability.
//
// Updates are applied to the shared cache.Index and complete immediately.
// Transient entities are kept like any other entity, as in every backend,
// and outsourced strings are not supported. The store passes the same conformance suite
// (see package testing) as the durable file store.
package mstore
