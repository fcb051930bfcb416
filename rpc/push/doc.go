// Package push delivers the updates applied on a dEntity server to remote
// caches over websockets.
//
// The server side IHub is mounted on GET /push/{shardId}. After every applied
// update the server broadcasts a common.Notification with the saved entity
// records and the deleted ids of the shard. Slow subscribers are disconnected
// instead of blocking the server.
//
// On the client side Subscribe feeds the notifications of a shard into an
// store.IPartialBackend, Watch hands them to an arbitrary callback.
package push
