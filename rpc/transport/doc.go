// Package transport defines the interfaces for RPC communication between
// dEntity clients and servers. Requests are addressed to a shard, the payload
// is an already serialized common.Message.
//
// Key Components:
//
//   - IRPCClientTransport: Client side transport that handles connection
//     management and request sending.
//
//   - IRPCServerTransport: Server side transport that receives requests and
//     routes them to the registered ServerHandleFunc. Additional http handlers
//     (push subscriptions, metrics) can be mounted next to the RPC route.
//
// The only implementation lives in the http sub package.
package transport
