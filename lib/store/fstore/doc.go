// Package fstore implements a durable store.IBackend that keeps every entity in
// its own file.
//
// Layout of a store directory:
//
//	<dir>/store.properties           version=<n>
//	<dir>/<alias>/<id><suffix>       one file per entity (alias with lowercase first letter)
//	<dir>/_outsourced/<alias>/<id>/  outsourced properties, one <property>.txt each
//
// Write Protocol:
//
// An update is turned into a list of operations (saves in change set order, then
// deletes). Every save first writes the entity to <final>.tmp and checks that the
// staged file exists and is not empty. Only if all operations were prepared, the
// staged files are renamed over the final files and the index is updated. A failed
// prepare removes all staged files and leaves the store as it was. Failures while
// completing are not rolled back, since every single file is replaced atomically
// the files on disk are always readable.
//
// Versioning:
//
// The first update writes the configured version to store.properties. Loading a
// store whose stored version is greater than the configured one fails with
// store.RetCIncompatibleStoreVersion before anything is read or written.
//
// Lifecycle:
//
//	Unversioned -> VersionChecked -> Running -> Locked
//
// After Lock every update fails with store.RetCStoreLocked. Updates, loads and Lock
// share a mutex, so no write can slip through once Lock returned.
package fstore
