// Package common provides the data structures shared by the dEntity client,
// server and push components.
//
// The package focuses on:
//   - Message protocol definition for RPC communication
//   - Configuration structures for client and server
//   - A zap backed logger factory for the dragonboat logger facade
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. Entities travel
//     as data records (map[string]string with "id" and "@type"). Errors keep
//     their store.RetCode so typed errors survive the wire.
//
//   - Notification: Pushed to subscribers of a shard after every applied update.
//
//   - ServerConfig / ClientConfig: Configuration of the server shards and of
//     the RPC client, both with a String() dump for startup logging.
//
//   - InitLoggers: Installs the zap backed logger factory and sets the level
//     of all package loggers ("store", "rpc", "transport/rpc", "push").
package common
