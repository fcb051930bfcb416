// Package http implements the HTTP transport for dEntity RPC communication.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport. Requests are sent as
//     POST /{shardId} with the serialized message as body. Servers are selected
//     round-robin, a failed attempt is retried on the next server.
//
//   - httpServerTransport: Implements IRPCServerTransport. Routes POST /{shardId}
//     to the registered handler, serves the Prometheus metrics of the process
//     at GET /metrics and any handler mounted via Mount (e.g. the push hub).
//
// Thread Safety:
//
//	The client transport is safe for concurrent use after Connect. It uses an
//	atomic counter for the round-robin server selection.
package http
