package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/ValentinKolb/dEntity/rpc/serializer"
	"github.com/ValentinKolb/dEntity/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends req to the shard of the adapter, the request timeout of the config applies
func (a *rpcClientAdapter) invoke(ctx context.Context, req *common.Message) (*common.Message, error) {
	if timeout := a.config.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return invokeRPCRequest(ctx, a.shardId, req, a.transport, a.serializer)
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests.
// Transport failures are returned as RetCInternalError, error responses are
// converted back into a *store.Error with the code sent by the server.
// This method also checks if the type of the response is the expected type.
func invokeRPCRequest(ctx context.Context, shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, store.WrapError(store.RetCInternalError, err, "failed to serialize %s request", req.MsgType)
	}

	respBytes, err := transport.Send(ctx, shardId, reqBytes)
	if err != nil {
		return nil, store.WrapError(store.RetCInternalError, err, "%s request to shard %d failed", req.MsgType, shardId)
	}

	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.WrapError(store.RetCInternalError, err, "failed to deserialize %s response", req.MsgType)
	}

	// Check if the response is an error response
	if err := resp.AsError(); err != nil {
		return nil, err
	}

	if resp.MsgType != req.MsgType {
		return nil, store.NewError(store.RetCInternalError,
			fmt.Sprintf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	return resp, nil
}
