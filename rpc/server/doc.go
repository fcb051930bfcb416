// Package server implements the dEntity RPC server. A server hosts one backend
// per configured shard and acts as the remote authority of the rstore caches.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface of the request handlers, the Handle method
//     processes a request against the backend of a shard.
//
//   - NewEntityServerAdapter: Adapter translating update, get, find, info and
//     outsourced string requests into store.IBackend calls. Saved records are
//     applied as upserts, records named in Message.Changed are merged into the
//     stored entity. After every applied update a common.Notification is sent
//     to the push subscribers of the shard.
//
//   - NewRPCServer: Creates a server with the given transport, serializer and
//     entity types. File store shards are loaded from <DataDir>/<shardId> on Init.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 1, Type: common.ShardTypeFileStore},
//	    {ShardID: 2, Type: common.ShardTypeMemoryStore},
//	  },
//	  DataDir:      "./data",
//	  EntityFormat: "json",
//	  Endpoint:     ":8080",
//	  LogLevel:     "info",
//	}
//
//	registry, _ := entity.ParseTypeList("User,Project=proj")
//	s := server.NewRPCServer(config, http.NewHttpServerTransport(), serializer.NewBinarySerializer(), registry)
//	if err := s.Serve(); err != nil {
//	  log.Fatal(err)
//	}
//
// Metrics of every request are exported at GET /metrics:
//   - dentity_rpc_requests_total{shard,type}
//   - dentity_rpc_errors_total{shard,type}
//   - dentity_rpc_request_duration_seconds{shard,type}
package server
