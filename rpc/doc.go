// Package rpc connects partial entity caches to a dEntity server, which holds
// the authoritative backends. Clients forward their change sets and fetch
// records, the server applies the changes and pushes them to every subscriber.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, the push Notification, configuration
//     structures and logging.
//
//   - transport: Request/response transport over HTTP. The server side also
//     serves the /metrics and push endpoints on the same address.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: the forwarder of remote stores (see lib/store/rstore).
//
//   - server: hosts one backend per shard and applies forwarded change sets.
//
//   - push: WebSocket hub broadcasting applied changes, and the subscriber
//     feeding them into a partial backend.
package rpc
