// Package client implements the RPC client of a dEntity server shard.
//
// NewRPCClient returns an IEntityClient that forwards change sets, fetches
// entities by id, runs simple property queries and gives access to outsourced
// strings. It implements the forwarder interfaces of the rstore package, so
// a remote store stays in sync with a server:
//
//	config := common.ClientConfig{
//	  Endpoints:     []string{"localhost:8080"},
//	  TimeoutSecond: 5,
//	  RetryCount:    2,
//	}
//
//	c, _ := client.NewRPCClient(1, config, http.NewHttpClientTransport(), serializer.NewBinarySerializer(), registry)
//	backend := rstore.NewRemoteStore(registry, c, rstore.DefaultOptions())
//
// Errors sent by the server keep their store.RetCode, so errors.Is works with
// the sentinels of the store package. Transport failures are reported with
// RetCInternalError.
//
// Thread Safety:
//
//	The client is safe for concurrent use.
package client
