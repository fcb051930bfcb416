// Package rstore implements a partial store.IBackend that caches entities of a
// remote authority (usually a dEntity server, see package rpc/client).
//
// The store only holds entities it was told about: entities received through
// UpdateFromServer (pushed by the server or fetched with EnsureLoaded) and the
// entities of local updates. Local updates are queued and forwarded by a single
// worker in commit order. The cache reflects an update only after the remote
// acknowledged it.
//
// Forward Failures:
//
// A failed forward is retried with exponential backoff (Options.Retries,
// Options.Backoff); errors with a code other than store.RetCInternalError are
// not retried. The remote applies saves as upserts and ignores deletes of absent
// ids, so a retried change set that already reached the remote does no harm. If
// all attempts fail the cache is left unchanged and the completion callback
// receives the error.
//
// Server Ingestion:
//
// UpdateFromServer and OnEntityDeletionsReceived change the cache directly and
// never reach the forwarder, so data from the server is not sent back.
package rstore
